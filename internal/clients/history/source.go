// Package history supplies full candle histories for validation replays.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aristath/vitals/internal/domain"
)

// ErrNoHistory is returned when a source has no candles for a symbol
var ErrNoHistory = errors.New("no history for symbol")

// Source supplies the complete candle history of a symbol
type Source interface {
	Name() string
	Candles(ctx context.Context, symbol string) ([]domain.Candle, error)
}

// NormalizeSymbol upper-cases and trims a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// sortCandles orders candles oldest first
func sortCandles(candles []domain.Candle) {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
}

// FileSource serves histories from a YAML document mapping symbol to candles
type FileSource struct {
	path    string
	candles map[string][]domain.Candle
}

// LoadFileSource reads and indexes a YAML history file
func LoadFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return ParseFileSource(path, data)
}

// ParseFileSource indexes YAML history content; path is only used for naming
func ParseFileSource(path string, data []byte) (*FileSource, error) {
	var raw map[string][]domain.Candle
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	candles := make(map[string][]domain.Candle, len(raw))
	for symbol, list := range raw {
		key := NormalizeSymbol(symbol)
		merged := append(candles[key], list...)
		sortCandles(merged)
		candles[key] = merged
	}

	return &FileSource{path: path, candles: candles}, nil
}

// Name identifies the source in logs and metrics
func (s *FileSource) Name() string {
	return "file"
}

// Symbols lists the symbols present in the file, sorted
func (s *FileSource) Symbols() []string {
	out := make([]string, 0, len(s.candles))
	for symbol := range s.candles {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Candles returns a copy of the symbol's history, oldest first
func (s *FileSource) Candles(ctx context.Context, symbol string) ([]domain.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, ok := s.candles[NormalizeSymbol(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoHistory, symbol, s.path)
	}
	return append([]domain.Candle(nil), list...), nil
}
