// internal/protocol/protocol.go
package protocol

import (
	"context"
	"io"
	"sync"
	"time"

	"epl2-service/internal/model"
)

// StatusRequest asks an EPL2 printer to report its error status.
var StatusRequest = []byte("^ee\n")

// PrinterTransport carries raw job bytes to a printer
type PrinterTransport interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Transport information
	Type() model.ConnectionType
	Stats() TransportStats

	// Ping sends the status request
	Ping(ctx context.Context) error
}

// TransportStats provides transport-level statistics
type TransportStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// statsRecorder is shared by the transports
type statsRecorder struct {
	mu    sync.Mutex
	stats TransportStats
}

func (s *statsRecorder) snapshot() TransportStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *statsRecorder) connected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.IsConnected = v
	if v {
		s.stats.LastActivity = time.Now()
	}
}

func (s *statsRecorder) wrote(n int, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.BytesWritten += int64(n)
	s.stats.OperationCount++
	s.stats.LastActivity = time.Now()
	if s.stats.AverageLatency == 0 {
		s.stats.AverageLatency = latency
	} else {
		s.stats.AverageLatency = (s.stats.AverageLatency + latency) / 2
	}
}

func (s *statsRecorder) read(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.BytesRead += int64(n)
	s.stats.OperationCount++
	s.stats.LastActivity = time.Now()
}

func (s *statsRecorder) failed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.ErrorCount++
}

// readResult carries a blocking read back to the caller's select
type readResult struct {
	data []byte
	err  error
}

// readWithContext runs a blocking read in a goroutine so ctx can abandon it
func readWithContext(ctx context.Context, maxBytes int, read func([]byte) (int, error)) ([]byte, error) {
	done := make(chan readResult, 1)
	go func() {
		buffer := make([]byte, maxBytes)
		n, err := read(buffer)
		done <- readResult{data: buffer[:n], err: err}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// writeChunks writes data in pieces of at most size bytes, checking ctx between pieces
func writeChunks(ctx context.Context, data []byte, size int, write func([]byte) (int, error)) (int, error) {
	if size <= 0 {
		size = len(data)
	}
	written := 0
	for written < len(data) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		chunk := data[written:min(written+size, len(data))]
		n, err := write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		if n < len(chunk) {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
