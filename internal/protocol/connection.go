// internal/protocol/connection.go
package protocol

import "time"

// SerialConfig represents serial connection configuration
type SerialConfig struct {
	Port     string        `json:"port"`
	BaudRate int           `json:"baud_rate"`
	DataBits int           `json:"data_bits"`
	StopBits int           `json:"stop_bits"`
	Parity   string        `json:"parity"`
	Timeout  time.Duration `json:"timeout"`
}

// USBConfig represents USB printer-class connection configuration
type USBConfig struct {
	VendorID  uint16        `json:"vendor_id"`
	ProductID uint16        `json:"product_id"`
	Endpoint  int           `json:"endpoint"`
	ChunkSize int           `json:"chunk_size"`
	Timeout   time.Duration `json:"timeout"`
}

// TCPConfig represents raw TCP (port 9100) connection configuration
type TCPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	KeepAlive    bool          `json:"keep_alive"`
	Timeout      time.Duration `json:"timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}
