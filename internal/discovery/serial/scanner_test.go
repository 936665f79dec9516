package serial

import (
	"context"
	"errors"
	"testing"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"epl2-service/internal/model"
)

func TestScanFiltersAndConverts(t *testing.T) {
	s := NewScanner(zap.NewNop(), &Config{PortPatterns: []string{"/dev/ttyUSB*"}})
	s.list = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0a5f", PID: "00a0", Product: "ZTC GK420d"},
		}, nil
	}

	found, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d ports, want 1", len(found))
	}
	p := found[0]
	if p.ConnectionType != model.ConnectionTypeSerial || p.Address != "/dev/ttyUSB0" {
		t.Errorf("printer = %+v", p)
	}
	if p.VendorID != 0x0a5f || p.ProductID != 0x00a0 || p.Model != "ZTC GK420d" {
		t.Errorf("usb details = %+v", p)
	}
}

func TestScanListError(t *testing.T) {
	s := NewScanner(zap.NewNop(), nil)
	s.list = func() ([]*enumerator.PortDetails, error) { return nil, errors.New("no sysfs") }
	if _, err := s.Scan(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
