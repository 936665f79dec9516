// internal/discovery/mdns/scanner.go
package mdns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"epl2-service/internal/model"
)

// Config for the mDNS scanner
type Config struct {
	Service string        `json:"service"`
	Domain  string        `json:"domain"`
	Timeout time.Duration `json:"timeout"`
}

// Scanner browses DNS-SD for raw-port network printers
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// NewScanner creates a new mDNS scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{}
	}
	if config.Service == "" {
		config.Service = "_pdl-datastream._tcp"
	}
	if config.Domain == "" {
		config.Domain = "local."
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "mdns")),
		config: config,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "mdns"
}

// IsAvailable reports true; multicast failures surface from Scan
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan browses for the configured service until the timeout elapses
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	results := make(chan []*model.DiscoveredPrinter, 1)
	go func() {
		var found []*model.DiscoveredPrinter
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					results <- found
					return
				}
				if p := FromServiceEntry(entry); p != nil {
					found = append(found, p)
				}
			case <-ctx.Done():
				results <- found
				return
			}
		}
	}()

	s.logger.Debug("Browsing", zap.String("service", s.config.Service), zap.String("domain", s.config.Domain))
	if err := resolver.Browse(ctx, s.config.Service, s.config.Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse %s: %w", s.config.Service, err)
	}

	return <-results, nil
}

// FromServiceEntry converts a resolved DNS-SD entry; entries without an address are dropped
func FromServiceEntry(entry *zeroconf.ServiceEntry) *model.DiscoveredPrinter {
	var address string
	switch {
	case len(entry.AddrIPv4) > 0:
		address = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		address = entry.AddrIPv6[0].String()
	default:
		return nil
	}

	text := parseTXT(entry.Text)
	return &model.DiscoveredPrinter{
		Name:           entry.Instance,
		ConnectionType: model.ConnectionTypeTCP,
		Address:        address,
		Port:           entry.Port,
		Model:          text["ty"],
		Source:         "mdns",
		Text:           text,
	}
}

// parseTXT splits key=value TXT records; keys are lower-cased
func parseTXT(records []string) map[string]string {
	if len(records) == 0 {
		return nil
	}
	text := make(map[string]string, len(records))
	for _, rec := range records {
		key, value, _ := strings.Cut(rec, "=")
		if key == "" {
			continue
		}
		text[strings.ToLower(key)] = value
	}
	return text
}
