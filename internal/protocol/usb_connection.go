// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"epl2-service/internal/model"
)

// USBTransport sends jobs to a USB printer-class device
type USBTransport struct {
	config   *USBConfig
	ctx      *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	done     func()
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	stats    statsRecorder
}

// NewUSBTransport creates a new USB transport
func NewUSBTransport(config *USBConfig, logger *zap.Logger) *USBTransport {
	return &USBTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "usb"),
			zap.String("vendor_id", fmt.Sprintf("%04x", config.VendorID)),
			zap.String("product_id", fmt.Sprintf("%04x", config.ProductID)),
		),
	}
}

// Open claims the default interface of the first matching device
func (uc *USBTransport) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.device != nil {
		return nil
	}

	uc.ctx = gousb.NewContext()

	device, err := uc.findDevice(gousb.ID(uc.config.VendorID), gousb.ID(uc.config.ProductID))
	if err != nil {
		uc.ctx.Close()
		uc.ctx = nil
		uc.stats.failed()
		return err
	}
	// Printers are commonly bound to usblp
	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Warn("Could not enable kernel driver auto-detach", zap.Error(err))
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		uc.ctx.Close()
		uc.ctx = nil
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	outEndpt, err := intf.OutEndpoint(uc.config.Endpoint)
	if err != nil {
		done()
		device.Close()
		uc.ctx.Close()
		uc.ctx = nil
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	inEndpt, err := intf.InEndpoint(uc.config.Endpoint)
	if err != nil {
		// Write-only printers have no IN endpoint
		uc.logger.Debug("No in endpoint found", zap.Error(err))
	}

	uc.device = device
	uc.intf = intf
	uc.done = done
	uc.outEndpt = outEndpt
	uc.inEndpt = inEndpt
	uc.stats.connected(true)
	return nil
}

// Close releases the interface and device
func (uc *USBTransport) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.device == nil {
		return nil
	}

	if uc.done != nil {
		uc.done()
		uc.done = nil
	}
	uc.intf = nil

	err := uc.device.Close()
	uc.device = nil

	if uc.ctx != nil {
		uc.ctx.Close()
		uc.ctx = nil
	}

	uc.outEndpt = nil
	uc.inEndpt = nil
	uc.stats.connected(false)
	if err != nil {
		return fmt.Errorf("failed to close USB device: %w", err)
	}
	return nil
}

// IsOpen returns whether the device is claimed
func (uc *USBTransport) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.device != nil && uc.outEndpt != nil
}

// Write sends data in bulk transfers of at most ChunkSize bytes
func (uc *USBTransport) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if uc.outEndpt == nil {
		return ErrNotOpen
	}

	start := time.Now()
	n, err := writeChunks(ctx, data, uc.config.ChunkSize, uc.outEndpt.Write)
	if err != nil {
		uc.stats.failed()
		uc.logger.Error("USB write failed", zap.Int("written", n), zap.Error(err))
		return fmt.Errorf("failed to write to USB device: %w", err)
	}
	if n != len(data) {
		uc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	uc.stats.wrote(n, time.Since(start))
	return nil
}

// Read reads up to maxBytes from the IN endpoint
func (uc *USBTransport) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if uc.inEndpt == nil {
		return nil, fmt.Errorf("%w: no in endpoint", ErrNotOpen)
	}

	data, err := readWithContext(ctx, maxBytes, uc.inEndpt.Read)
	if err != nil {
		uc.stats.failed()
		return nil, fmt.Errorf("failed to read from USB device: %w", err)
	}
	uc.stats.read(len(data))
	return data, nil
}

// Type returns the connection type
func (uc *USBTransport) Type() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// Stats returns a snapshot of the transport statistics
func (uc *USBTransport) Stats() TransportStats {
	return uc.stats.snapshot()
}

// Ping sends the status request
func (uc *USBTransport) Ping(ctx context.Context) error {
	return uc.Write(ctx, StatusRequest)
}

// findDevice opens the first device matching the vendor and product IDs
func (uc *USBTransport) findDevice(vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := uc.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("USB printer not found (VID: %04X, PID: %04X)", vendorID, productID)
	}

	for _, extra := range devices[1:] {
		extra.Close()
	}
	if len(devices) > 1 {
		uc.logger.Warn("Multiple matching USB printers found, using first one")
	}
	return devices[0], nil
}
