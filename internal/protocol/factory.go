// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"epl2-service/internal/config"
	"epl2-service/internal/model"
)

// ValidBaudRates lists the serial rates EPL2 printers accept
var ValidBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// NewTransport creates a transport for target, filling gaps from the configured port defaults
func NewTransport(target model.PrinterTarget, defaults config.PrinterPortConfig, logger *zap.Logger) (PrinterTransport, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	switch target.ConnectionType {
	case model.ConnectionTypeSerial:
		return NewSerialTransport(serialConfig(target, defaults.Serial), logger), nil
	case model.ConnectionTypeUSB:
		return NewUSBTransport(usbConfig(target, defaults.USB), logger), nil
	case model.ConnectionTypeTCP:
		return NewTCPTransport(tcpConfig(target, defaults.TCP), logger), nil
	default:
		return nil, fmt.Errorf("unsupported connection type: %s", target.ConnectionType)
	}
}

// ValidateTarget checks a forward target beyond its required fields
func ValidateTarget(target model.PrinterTarget) error {
	if err := target.Validate(); err != nil {
		return err
	}

	switch target.ConnectionType {
	case model.ConnectionTypeSerial:
		if target.BaudRate != 0 && !slices.Contains(ValidBaudRates, target.BaudRate) {
			return fmt.Errorf("invalid baud rate: %d", target.BaudRate)
		}
	case model.ConnectionTypeTCP:
		if target.Port < 0 || target.Port > 65535 {
			return fmt.Errorf("invalid port number: %d", target.Port)
		}
	}
	return nil
}

func serialConfig(target model.PrinterTarget, defaults config.SerialPortConfig) *SerialConfig {
	cfg := &SerialConfig{
		Port:     target.Address,
		BaudRate: defaults.BaudRate,
		DataBits: defaults.DataBits,
		StopBits: defaults.StopBits,
		Parity:   defaults.Parity,
		Timeout:  defaults.Timeout,
	}
	if target.BaudRate != 0 {
		cfg.BaudRate = target.BaudRate
	}
	return cfg
}

func usbConfig(target model.PrinterTarget, defaults config.USBPortConfig) *USBConfig {
	return &USBConfig{
		VendorID:  target.VendorID,
		ProductID: target.ProductID,
		Endpoint:  1,
		ChunkSize: defaults.BulkTransferSize,
		Timeout:   defaults.Timeout,
	}
}

func tcpConfig(target model.PrinterTarget, defaults config.TCPPortConfig) *TCPConfig {
	cfg := &TCPConfig{
		Host:         target.Address,
		Port:         defaults.Port,
		KeepAlive:    defaults.KeepAlive,
		Timeout:      defaults.ConnectTimeout,
		ReadTimeout:  defaults.ReadTimeout,
		WriteTimeout: defaults.WriteTimeout,
	}
	if target.Port != 0 {
		cfg.Port = target.Port
	}
	return cfg
}
