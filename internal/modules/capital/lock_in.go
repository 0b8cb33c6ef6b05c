// Package capital detects capital stuck in low-efficiency positions.
package capital

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/pkg/formulas"
)

const (
	deadVitalsBelow   = 50.0
	coldHeatBelow     = 40.0
	hotHeatAtLeast    = 70.0
	hotSectorWeight   = 20.0
	cashRatioWeight   = 50.0
	reallocationAbove = 50.0
)

// DeadPosition is a position counted as dead capital
type DeadPosition struct {
	Symbol           string  `json:"symbol" msgpack:"symbol"`
	Sector           string  `json:"sector" msgpack:"sector"`
	VitalsScore      float64 `json:"vitals_score" msgpack:"vitals_score"`
	CapitalAllocated float64 `json:"capital_allocated" msgpack:"capital_allocated"`
}

// LockInReport summarizes dead capital and reallocation pressure
type LockInReport struct {
	DeadCapital       float64        `json:"dead_capital" msgpack:"dead_capital"`
	DeadPositions     []DeadPosition `json:"dead_positions" msgpack:"dead_positions"`
	LockInRatio       float64        `json:"lock_in_ratio" msgpack:"lock_in_ratio"`
	HotSectors        []string       `json:"hot_sectors" msgpack:"hot_sectors"`
	PressureScore     float64        `json:"pressure_score" msgpack:"pressure_score"`
	ReallocationAlert bool           `json:"reallocation_alert" msgpack:"reallocation_alert"`
	Summary           string         `json:"summary" msgpack:"summary"`
}

// IsDead reports whether symbol was classified as dead capital
func (r LockInReport) IsDead(symbol string) bool {
	for _, p := range r.DeadPositions {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}

// IsHot reports whether sector is in the hot list
func (r LockInReport) IsHot(sector string) bool {
	for _, s := range r.HotSectors {
		if s == sector {
			return true
		}
	}
	return false
}

// DetectCapitalLockIn flags positions that are weak (vitals < 50) and sit in a
// cold sector (heat < 40), then scores the pressure to move that capital into
// hot sectors. Unknown sectors read as neutral heat.
func DetectCapitalLockIn(portfolio domain.PortfolioState, positions []domain.AnalyzedPosition, heatmap domain.SectorHeatmap) LockInReport {
	safeTotal := max(portfolio.TotalCapital, 1.0)

	deadCapital := 0.0
	dead := []DeadPosition{}
	for _, p := range positions {
		heat := heatmap.Heat(p.Sector)
		if p.VitalsScore < deadVitalsBelow && heat < coldHeatBelow {
			deadCapital += p.CapitalAllocated
			dead = append(dead, DeadPosition{
				Symbol:           p.Symbol,
				Sector:           p.Sector,
				VitalsScore:      p.VitalsScore,
				CapitalAllocated: p.CapitalAllocated,
			})
		}
	}

	lockInRatio := deadCapital / safeTotal

	hot := []string{}
	for sector, heat := range heatmap {
		if heat >= hotHeatAtLeast {
			hot = append(hot, sector)
		}
	}
	sort.Strings(hot)

	cashRatio := portfolio.Cash / safeTotal
	pressure := lockInRatio*100 + float64(len(hot))*hotSectorWeight - cashRatio*cashRatioWeight
	pressure = formulas.Round(max(0, pressure), 2)
	alert := pressure > reallocationAbove

	return LockInReport{
		DeadCapital:       formulas.Round(deadCapital, 2),
		DeadPositions:     dead,
		LockInRatio:       formulas.Round(lockInRatio, 4),
		HotSectors:        hot,
		PressureScore:     pressure,
		ReallocationAlert: alert,
		Summary:           summarize(alert, pressure, lockInRatio, hot),
	}
}

func summarize(alert bool, pressure, lockInRatio float64, hot []string) string {
	parts := make([]string, 0, 3)
	if alert {
		parts = append(parts, fmt.Sprintf("REALLOCATION REQUIRED (Pressure: %s).", formulas.FormatDecimal(pressure)))
	} else {
		parts = append(parts, fmt.Sprintf("No immediate action needed (Pressure: %s).", formulas.FormatDecimal(pressure)))
	}

	parts = append(parts, fmt.Sprintf("%s%% of capital is locked in low-efficiency positions.",
		formulas.FormatDecimal(formulas.Round(lockInRatio*100, 1))))

	if len(hot) > 0 {
		parts = append(parts, fmt.Sprintf("High-opportunity sectors (%s) are active.", strings.Join(hot, ", ")))
	} else {
		parts = append(parts, "No specific high-opportunity sectors detected.")
	}

	return strings.Join(parts, " ")
}
