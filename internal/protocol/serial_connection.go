// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"epl2-service/internal/model"
)

// SerialTransport sends jobs over an RS-232 port
type SerialTransport struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger
	mutex  sync.RWMutex
	stats  statsRecorder
}

// NewSerialTransport creates a new serial transport
func NewSerialTransport(config *SerialConfig, logger *zap.Logger) *SerialTransport {
	return &SerialTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "serial"),
			zap.String("port", config.Port),
		),
	}
}

// serialMode translates the config into a go.bug.st/serial mode
func serialMode(config *SerialConfig) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		StopBits: serial.OneStopBit,
	}
	if config.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode
}

// Open opens the serial port
func (sc *SerialTransport) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.port != nil {
		return nil
	}

	sc.logger.Debug("Opening serial port", zap.Int("baud_rate", sc.config.BaudRate))

	port, err := serial.Open(sc.config.Port, serialMode(sc.config))
	if err != nil {
		sc.stats.failed()
		sc.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	if sc.config.Timeout > 0 {
		if err := port.SetReadTimeout(sc.config.Timeout); err != nil {
			port.Close()
			return fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	sc.port = port
	sc.stats.connected(true)
	return nil
}

// Close closes the serial port
func (sc *SerialTransport) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.stats.connected(false)
	if err != nil {
		sc.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// IsOpen returns whether the port is open
func (sc *SerialTransport) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.port != nil
}

// Write sends data and waits for the output buffer to drain
func (sc *SerialTransport) Write(ctx context.Context, data []byte) error {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if sc.port == nil {
		return ErrNotOpen
	}

	start := time.Now()
	n, err := writeChunks(ctx, data, 0, sc.port.Write)
	if err == nil {
		err = sc.port.Drain()
	}
	if err != nil {
		sc.stats.failed()
		sc.logger.Error("Serial write failed", zap.Int("written", n), zap.Error(err))
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(data) {
		sc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	sc.stats.wrote(n, time.Since(start))
	return nil
}

// Read reads up to maxBytes from the port
func (sc *SerialTransport) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if sc.port == nil {
		return nil, ErrNotOpen
	}

	data, err := readWithContext(ctx, maxBytes, sc.port.Read)
	if err != nil {
		sc.stats.failed()
		return nil, fmt.Errorf("failed to read from serial port: %w", err)
	}
	sc.stats.read(len(data))
	return data, nil
}

// Type returns the connection type
func (sc *SerialTransport) Type() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// Stats returns a snapshot of the transport statistics
func (sc *SerialTransport) Stats() TransportStats {
	return sc.stats.snapshot()
}

// Ping sends the status request
func (sc *SerialTransport) Ping(ctx context.Context) error {
	return sc.Write(ctx, StatusRequest)
}
