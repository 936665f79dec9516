// internal/model/printer.go
package model

import (
	"fmt"
	"strconv"
)

// ConnectionType represents how a printer is reached
type ConnectionType string

const (
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeTCP    ConnectionType = "TCP"
)

// PrinterTarget describes where a job is forwarded
type PrinterTarget struct {
	ConnectionType ConnectionType `json:"connection_type" binding:"required"`
	Address        string         `json:"address,omitempty"`   // host for TCP, port path for SERIAL
	Port           int            `json:"port,omitempty"`      // TCP port
	BaudRate       int            `json:"baud_rate,omitempty"` // SERIAL
	VendorID       uint16         `json:"vendor_id,omitempty"` // USB
	ProductID      uint16         `json:"product_id,omitempty"`
}

// Validate checks that the target carries what its connection type needs
func (t *PrinterTarget) Validate() error {
	switch t.ConnectionType {
	case ConnectionTypeTCP, ConnectionTypeSerial:
		if t.Address == "" {
			return fmt.Errorf("address is required for %s targets", t.ConnectionType)
		}
	case ConnectionTypeUSB:
		if t.VendorID == 0 || t.ProductID == 0 {
			return fmt.Errorf("vendor_id and product_id are required for USB targets")
		}
	default:
		return fmt.Errorf("unsupported connection type: %q", t.ConnectionType)
	}
	return nil
}

// String returns a printable address for logs and audit records
func (t *PrinterTarget) String() string {
	switch t.ConnectionType {
	case ConnectionTypeTCP:
		if t.Port > 0 {
			return t.Address + ":" + strconv.Itoa(t.Port)
		}
		return t.Address
	case ConnectionTypeUSB:
		return fmt.Sprintf("usb:%04x:%04x", t.VendorID, t.ProductID)
	}
	return t.Address
}

// DiscoveredPrinter is a printer found by a discovery scanner
type DiscoveredPrinter struct {
	Name           string            `json:"name"`
	ConnectionType ConnectionType    `json:"connection_type"`
	Address        string            `json:"address"`
	Port           int               `json:"port,omitempty"`
	VendorID       uint16            `json:"vendor_id,omitempty"`
	ProductID      uint16            `json:"product_id,omitempty"`
	Model          string            `json:"model,omitempty"`
	Source         string            `json:"source"`
	Text           map[string]string `json:"text,omitempty"`
}

// Target converts the discovery result into a forward target
func (p *DiscoveredPrinter) Target() PrinterTarget {
	return PrinterTarget{
		ConnectionType: p.ConnectionType,
		Address:        p.Address,
		Port:           p.Port,
		VendorID:       p.VendorID,
		ProductID:      p.ProductID,
	}
}

// Key identifies the physical printer behind a discovery result
func (p *DiscoveredPrinter) Key() string {
	t := p.Target()
	return string(p.ConnectionType) + "|" + t.String()
}
