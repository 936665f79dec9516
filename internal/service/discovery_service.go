// internal/service/discovery_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"epl2-service/internal/config"
	"epl2-service/internal/discovery"
	"epl2-service/internal/discovery/mdns"
	"epl2-service/internal/discovery/serial"
	"epl2-service/internal/discovery/usb"
	"epl2-service/internal/model"
	"epl2-service/internal/protocol"
	"epl2-service/internal/utils"
)

// ErrUnsupportedScanType is returned for an unknown scan type
var ErrUnsupportedScanType = errors.New("unsupported scan type")

// ScanRequest selects which scanners run
type ScanRequest struct {
	ScanType string `form:"type" json:"scan_type"` // all, mdns, serial, usb
}

// ProbeResult reports whether a printer answered the status request
type ProbeResult struct {
	Target    string        `json:"target"`
	Reachable bool          `json:"reachable"`
	Latency   time.Duration `json:"latency_ns"`
	Response  string        `json:"response,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// DiscoveryService finds printers and checks that they answer
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	newTransport   TransportFactory
	config         *config.Config
	logger         *utils.ServiceLogger
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(config *config.Config, logger *zap.Logger) *DiscoveryService {
	ds := &DiscoveryService{
		scannerManager: discovery.NewScannerManager(logger),
		config:         config,
		logger:         utils.NewServiceLogger(logger, "discovery-service"),
	}
	ds.newTransport = func(target model.PrinterTarget) (protocol.PrinterTransport, error) {
		return protocol.NewTransport(target, config.Printer.DefaultPort, logger)
	}

	if config.Discovery.Enabled {
		ds.initializeScanners(logger)
	}
	return ds
}

// initializeScanners registers all configured scanners
func (ds *DiscoveryService) initializeScanners(logger *zap.Logger) {
	ds.scannerManager.RegisterScanner(mdns.NewScanner(logger, &mdns.Config{
		Service: ds.config.Discovery.Service,
		Domain:  ds.config.Discovery.Domain,
		Timeout: ds.config.Discovery.Timeout,
	}))

	if ds.config.Discovery.Serial {
		ds.scannerManager.RegisterScanner(serial.NewScanner(logger, &serial.Config{
			BaudRate: ds.config.Printer.DefaultPort.Serial.BaudRate,
		}))
	}

	if usbScanner := usb.NewScanner(logger); usbScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(usbScanner)
	}

	ds.logger.Info("Discovery scanners initialized",
		zap.Strings("available_scanners", ds.scannerManager.GetAvailableScanners()),
	)
}

// Scanners returns the scanner types that can run
func (ds *DiscoveryService) Scanners() []string {
	return ds.scannerManager.GetAvailableScanners()
}

// ScanPrinters runs the requested scanners
func (ds *DiscoveryService) ScanPrinters(ctx context.Context, req *ScanRequest) ([]*model.DiscoveredPrinter, error) {
	scanType := req.ScanType
	if scanType == "" {
		scanType = "all"
	}
	ds.logger.Info("Starting printer scan", zap.String("type", scanType))

	var (
		printers []*model.DiscoveredPrinter
		err      error
	)
	switch scanType {
	case "all":
		printers = ds.scannerManager.ScanAll(ctx)
	case "mdns", "serial", "usb":
		printers, err = ds.scannerManager.ScanByType(ctx, scanType)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScanType, scanType)
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	ds.logger.Info("Printer scan completed",
		zap.Int("printers_found", len(printers)),
		zap.String("scan_type", scanType),
	)
	return printers, nil
}

// Probe sends the status request to target and collects any reply
func (ds *DiscoveryService) Probe(ctx context.Context, target model.PrinterTarget) (*ProbeResult, error) {
	transport, err := ds.newTransport(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	timeout := ds.config.Printer.ForwardTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := &ProbeResult{Target: target.String()}
	start := time.Now()

	if err := transport.Open(ctx); err != nil {
		result.Error = err.Error()
		return result, nil
	}
	defer transport.Close()

	if err := transport.Ping(ctx); err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.Reachable = true
	result.Latency = time.Since(start)

	// Printers without a back channel never answer
	readCtx, readCancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer readCancel()
	if reply, err := transport.Read(readCtx, 256); err == nil {
		result.Response = string(reply)
	}

	ds.logger.Debug("Printer probed",
		zap.String("target", result.Target),
		zap.Bool("reachable", result.Reachable),
		zap.Duration("latency", result.Latency),
	)
	return result, nil
}
