package broker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aristath/vitals/internal/domain"
)

// SnapshotAdapter serves inputs captured in a YAML file
type SnapshotAdapter struct {
	name     string
	snapshot Snapshot
}

// NewSnapshotAdapter wraps an in-memory snapshot
func NewSnapshotAdapter(name string, snapshot Snapshot) *SnapshotAdapter {
	return &SnapshotAdapter{name: name, snapshot: snapshot}
}

// LoadSnapshotAdapter reads a snapshot from a YAML file
func LoadSnapshotAdapter(path string) (*SnapshotAdapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}

	return NewSnapshotAdapter("snapshot:"+filepath.Base(path), snapshot), nil
}

// Name implements Adapter
func (a *SnapshotAdapter) Name() string {
	return a.name
}

// Portfolio implements Adapter
func (a *SnapshotAdapter) Portfolio(ctx context.Context) (domain.PortfolioState, error) {
	return a.snapshot.Portfolio, nil
}

// Positions implements Adapter
func (a *SnapshotAdapter) Positions(ctx context.Context) ([]domain.Position, error) {
	return append([]domain.Position(nil), a.snapshot.Positions...), nil
}

// Candidates implements Adapter
func (a *SnapshotAdapter) Candidates(ctx context.Context) ([]domain.Candidate, error) {
	return append([]domain.Candidate(nil), a.snapshot.Candidates...), nil
}

// SectorHeatmap implements Adapter
func (a *SnapshotAdapter) SectorHeatmap(ctx context.Context) (domain.SectorHeatmap, error) {
	heatmap := make(domain.SectorHeatmap, len(a.snapshot.SectorHeatmap))
	for k, v := range a.snapshot.SectorHeatmap {
		heatmap[k] = v
	}
	return heatmap, nil
}

// Candles implements Adapter. The snapshot holds one series; the most recent
// limit candles are returned whatever the symbol.
func (a *SnapshotAdapter) Candles(ctx context.Context, symbol string, limit int) ([]domain.Candle, error) {
	candles := a.snapshot.Candles
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return append([]domain.Candle(nil), candles...), nil
}

// Headlines implements Adapter
func (a *SnapshotAdapter) Headlines(ctx context.Context) ([]string, error) {
	return append([]string(nil), a.snapshot.Headlines...), nil
}
