// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"epl2-service/internal/model"
)

// Config for serial scanner
type Config struct {
	PortPatterns []string `json:"port_patterns"`
	BaudRate     int      `json:"baud_rate"`
}

// Scanner lists local serial ports that could carry a printer
type Scanner struct {
	logger *zap.Logger
	config *Config
	list   func() ([]*enumerator.PortDetails, error)
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{}
	}
	if len(config.PortPatterns) == 0 {
		config.PortPatterns = defaultPortPatterns()
	}
	if config.BaudRate == 0 {
		config.BaudRate = 9600
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		config: config,
		list:   enumerator.GetDetailedPortsList,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists the ports matching the configured patterns
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	ports, err := s.list()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	var discovered []*model.DiscoveredPrinter
	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return discovered, err
		}
		if !s.matches(port.Name) {
			continue
		}
		discovered = append(discovered, s.toPrinter(port))
	}

	s.logger.Debug("Serial scan completed", zap.Int("ports_found", len(discovered)))
	return discovered, nil
}

func (s *Scanner) matches(name string) bool {
	for _, pattern := range s.config.PortPatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) toPrinter(port *enumerator.PortDetails) *model.DiscoveredPrinter {
	p := &model.DiscoveredPrinter{
		Name:           port.Name,
		ConnectionType: model.ConnectionTypeSerial,
		Address:        port.Name,
		Source:         "serial",
	}
	if port.IsUSB {
		p.Model = port.Product
		p.Text = map[string]string{
			"vid":    port.VID,
			"pid":    port.PID,
			"serial": port.SerialNumber,
		}
		if vid, err := strconv.ParseUint(port.VID, 16, 16); err == nil {
			p.VendorID = uint16(vid)
		}
		if pid, err := strconv.ParseUint(port.PID, 16, 16); err == nil {
			p.ProductID = uint16(pid)
		}
	}
	return p
}

// defaultPortPatterns returns default port patterns based on OS
func defaultPortPatterns() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"COM*"}
	case "darwin":
		return []string{"/dev/cu.*", "/dev/tty.usbserial*"}
	default:
		return []string{"/dev/ttyS*", "/dev/ttyUSB*", "/dev/ttyACM*"}
	}
}
