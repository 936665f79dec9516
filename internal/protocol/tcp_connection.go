// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"epl2-service/internal/model"
)

// ErrNotOpen is returned when a transport is used before Open
var ErrNotOpen = errors.New("transport not open")

// TCPTransport sends jobs to a raw TCP printer port
type TCPTransport struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
	mutex  sync.RWMutex
	stats  statsRecorder
}

// NewTCPTransport creates a new TCP transport
func NewTCPTransport(config *TCPConfig, logger *zap.Logger) *TCPTransport {
	return &TCPTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
	}
}

func (tc *TCPTransport) address() string {
	return net.JoinHostPort(tc.config.Host, strconv.Itoa(tc.config.Port))
}

// Open dials the printer
func (tc *TCPTransport) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.conn != nil {
		return nil
	}

	dialer := &net.Dialer{Timeout: tc.config.Timeout}
	if tc.config.KeepAlive {
		dialer.KeepAlive = 30 * time.Second
	} else {
		dialer.KeepAlive = -1
	}

	conn, err := dialer.DialContext(ctx, "tcp", tc.address())
	if err != nil {
		tc.stats.failed()
		tc.logger.Error("Failed to connect to printer", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", tc.address(), err)
	}

	tc.conn = conn
	tc.stats.connected(true)
	tc.logger.Debug("TCP transport opened")
	return nil
}

// Close closes the connection
func (tc *TCPTransport) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.conn == nil {
		return nil
	}

	err := tc.conn.Close()
	tc.conn = nil
	tc.stats.connected(false)
	if err != nil {
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}
	tc.logger.Debug("TCP transport closed")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPTransport) IsOpen() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.conn != nil
}

// Write sends data, honoring the earlier of ctx's deadline and the write timeout
func (tc *TCPTransport) Write(ctx context.Context, data []byte) error {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if tc.conn == nil {
		return ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := tc.conn.SetWriteDeadline(deadline(ctx, tc.config.WriteTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	start := time.Now()
	n, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.failed()
		tc.logger.Error("TCP write failed", zap.Int("written", n), zap.Error(err))
		return fmt.Errorf("failed to write to printer: %w", err)
	}

	tc.stats.wrote(n, time.Since(start))
	tc.logger.Debug("TCP write completed", zap.Int("bytes", n))
	return nil
}

// Read reads up to maxBytes of printer output
func (tc *TCPTransport) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if tc.conn == nil {
		return nil, ErrNotOpen
	}

	if err := tc.conn.SetReadDeadline(deadline(ctx, tc.config.ReadTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	data, err := readWithContext(ctx, maxBytes, tc.conn.Read)
	if err != nil {
		tc.stats.failed()
		return nil, fmt.Errorf("failed to read from printer: %w", err)
	}
	tc.stats.read(len(data))
	return data, nil
}

// Type returns the connection type
func (tc *TCPTransport) Type() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// Stats returns a snapshot of the transport statistics
func (tc *TCPTransport) Stats() TransportStats {
	return tc.stats.snapshot()
}

// Ping sends the status request
func (tc *TCPTransport) Ping(ctx context.Context) error {
	return tc.Write(ctx, StatusRequest)
}

// deadline picks the earlier of ctx's deadline and now+timeout; zero means none
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d
}
