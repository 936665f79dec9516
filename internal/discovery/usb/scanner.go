// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"epl2-service/internal/model"
)

// Scanner enumerates USB printer-class devices
type Scanner struct {
	logger *zap.Logger
}

// NewScanner creates a new USB scanner
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{logger: logger.With(zap.String("scanner", "usb"))}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "usb"
}

// IsAvailable checks that libusb can be initialised
func (s *Scanner) IsAvailable() bool {
	ctx := gousb.NewContext()
	defer ctx.Close()
	_, err := ctx.OpenDevices(func(*gousb.DeviceDesc) bool { return false })
	return err == nil
}

// Scan lists printer-class devices and devices from known label-printer vendors
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	devices, err := usbCtx.OpenDevices(IsPrinter)
	defer func() {
		for _, d := range devices {
			d.Close()
		}
	}()
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if err != nil {
		// Some matching devices could not be opened
		s.logger.Warn("Partial USB enumeration", zap.Error(err))
	}

	discovered := make([]*model.DiscoveredPrinter, 0, len(devices))
	for _, device := range devices {
		if err := ctx.Err(); err != nil {
			return discovered, err
		}
		discovered = append(discovered, s.describe(device))
	}
	return discovered, nil
}

// IsPrinter reports whether desc is a printer-class device or comes from a known vendor
func IsPrinter(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	_, known := LookupVendor(desc.Vendor)
	return known
}

func (s *Scanner) describe(device *gousb.Device) *model.DiscoveredPrinter {
	desc := device.Desc
	manufacturer, _ := device.Manufacturer()
	product, _ := device.Product()

	if vendor, ok := LookupVendor(desc.Vendor); ok && manufacturer == "" {
		manufacturer = vendor.Name
	}

	name := product
	if name == "" {
		name = fmt.Sprintf("USB printer %s:%s", desc.Vendor, desc.Product)
	}

	text := map[string]string{
		"bus":     fmt.Sprintf("%d", desc.Bus),
		"address": fmt.Sprintf("%d", desc.Address),
	}
	if manufacturer != "" {
		text["manufacturer"] = manufacturer
	}
	if vendor, ok := LookupVendor(desc.Vendor); ok && vendor.EPL2 {
		text["epl2"] = "likely"
	}

	return &model.DiscoveredPrinter{
		Name:           name,
		ConnectionType: model.ConnectionTypeUSB,
		VendorID:       uint16(desc.Vendor),
		ProductID:      uint16(desc.Product),
		Model:          product,
		Source:         "usb",
		Text:           text,
	}
}
