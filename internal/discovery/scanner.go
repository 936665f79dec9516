// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"epl2-service/internal/model"
)

// PrinterScanner finds printers reachable over one connection type
type PrinterScanner interface {
	Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error)
	GetScannerType() string
	IsAvailable() bool
}

// ScannerManager runs the registered scanners
type ScannerManager struct {
	mu       sync.RWMutex
	scanners map[string]PrinterScanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[string]PrinterScanner),
		logger:   logger,
	}
}

// RegisterScanner registers a printer scanner
func (sm *ScannerManager) RegisterScanner(scanner PrinterScanner) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	scannerType := scanner.GetScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll runs every available scanner concurrently and merges the results.
// A failing scanner is logged and skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) []*model.DiscoveredPrinter {
	sm.mu.RLock()
	scanners := make(map[string]PrinterScanner, len(sm.scanners))
	for k, v := range sm.scanners {
		scanners[k] = v
	}
	sm.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*model.DiscoveredPrinter
	)
	for scannerType, scanner := range scanners {
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", scannerType))
			continue
		}

		wg.Add(1)
		go func(scannerType string, scanner PrinterScanner) {
			defer wg.Done()

			found, err := scanner.Scan(ctx)
			if err != nil {
				sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
				return
			}
			sm.logger.Info("Scanner completed",
				zap.String("type", scannerType),
				zap.Int("printers_found", len(found)),
			)

			mu.Lock()
			results = append(results, found...)
			mu.Unlock()
		}(scannerType, scanner)
	}
	wg.Wait()

	return Deduplicate(results)
}

// ScanByType runs a single scanner
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*model.DiscoveredPrinter, error) {
	sm.mu.RLock()
	scanner, exists := sm.scanners[scannerType]
	sm.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}
	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	found, err := scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return Deduplicate(found), nil
}

// GetAvailableScanners returns the sorted list of available scanner types
func (sm *ScannerManager) GetAvailableScanners() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	available := make([]string, 0, len(sm.scanners))
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	sort.Strings(available)
	return available
}

// Deduplicate drops repeated printers, keeping the first, and orders the rest by name
func Deduplicate(printers []*model.DiscoveredPrinter) []*model.DiscoveredPrinter {
	seen := make(map[string]bool, len(printers))
	out := make([]*model.DiscoveredPrinter, 0, len(printers))
	for _, p := range printers {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}
