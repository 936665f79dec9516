package discovery

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"epl2-service/internal/model"
)

type stubScanner struct {
	kind      string
	available bool
	printers  []*model.DiscoveredPrinter
	err       error
}

func (s *stubScanner) Scan(context.Context) ([]*model.DiscoveredPrinter, error) {
	return s.printers, s.err
}
func (s *stubScanner) GetScannerType() string { return s.kind }
func (s *stubScanner) IsAvailable() bool      { return s.available }

func TestScanAllMergesAndDeduplicates(t *testing.T) {
	shared := &model.DiscoveredPrinter{Name: "b", ConnectionType: model.ConnectionTypeTCP, Address: "10.0.0.2", Port: 9100}
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&stubScanner{kind: "mdns", available: true, printers: []*model.DiscoveredPrinter{
		shared,
		{Name: "a", ConnectionType: model.ConnectionTypeTCP, Address: "10.0.0.1", Port: 9100},
	}})
	sm.RegisterScanner(&stubScanner{kind: "tcp", available: true, printers: []*model.DiscoveredPrinter{
		{Name: "b", ConnectionType: model.ConnectionTypeTCP, Address: "10.0.0.2", Port: 9100},
	}})
	sm.RegisterScanner(&stubScanner{kind: "broken", available: true, err: errors.New("boom")})
	sm.RegisterScanner(&stubScanner{kind: "off", available: false, printers: []*model.DiscoveredPrinter{{Name: "z"}}})

	found := sm.ScanAll(context.Background())
	if len(found) != 2 {
		t.Fatalf("found %d printers, want 2", len(found))
	}
	if found[0].Name != "a" || found[1].Name != "b" {
		t.Errorf("order = %s, %s", found[0].Name, found[1].Name)
	}

	if got := sm.GetAvailableScanners(); len(got) != 3 || got[0] != "broken" {
		t.Errorf("available = %v", got)
	}
}

func TestScanByType(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&stubScanner{kind: "off", available: false})
	if _, err := sm.ScanByType(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown scanner")
	}
	if _, err := sm.ScanByType(context.Background(), "off"); err == nil {
		t.Error("expected error for unavailable scanner")
	}
}
