package mdns

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"epl2-service/internal/model"
)

func TestFromServiceEntry(t *testing.T) {
	entry := zeroconf.NewServiceEntry("Zebra GK420d", "_pdl-datastream._tcp", "local.")
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.40")}
	entry.Port = 9100
	entry.Text = []string{"ty=Zebra GK420d", "Note=Warehouse", "novalue"}

	p := FromServiceEntry(entry)
	if p == nil {
		t.Fatal("expected a printer")
	}
	if p.ConnectionType != model.ConnectionTypeTCP || p.Address != "192.168.1.40" || p.Port != 9100 {
		t.Errorf("printer = %+v", p)
	}
	if p.Model != "Zebra GK420d" || p.Text["note"] != "Warehouse" {
		t.Errorf("txt = %v", p.Text)
	}
	if _, ok := p.Text["novalue"]; !ok {
		t.Error("bare TXT key dropped")
	}
	if target := p.Target(); target.String() != "192.168.1.40:9100" {
		t.Errorf("target = %s", target.String())
	}
}

func TestFromServiceEntryWithoutAddress(t *testing.T) {
	entry := zeroconf.NewServiceEntry("ghost", "_pdl-datastream._tcp", "local.")
	if p := FromServiceEntry(entry); p != nil {
		t.Errorf("expected nil, got %+v", p)
	}
}

func TestNewScannerDefaults(t *testing.T) {
	s := NewScanner(zap.NewNop(), nil)
	if s.config.Service != "_pdl-datastream._tcp" || s.config.Domain != "local." || s.config.Timeout != 3*time.Second {
		t.Errorf("config = %+v", s.config)
	}
	if s.GetScannerType() != "mdns" {
		t.Errorf("type = %s", s.GetScannerType())
	}
}
