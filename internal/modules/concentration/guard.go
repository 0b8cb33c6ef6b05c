// Package concentration measures sector exposure and flags over-concentration.
package concentration

import (
	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/pkg/formulas"
)

// Default exposure limits, as fractions of total capital
const (
	DefaultSoftLimit    = 0.70
	DefaultWarningLimit = 0.60
)

// Thresholds configures the severity bands
type Thresholds struct {
	SoftLimit    float64 `json:"soft_limit" msgpack:"soft_limit"`
	WarningLimit float64 `json:"warning_limit" msgpack:"warning_limit"`
}

// DefaultThresholds returns the standard 70% / 60% limits
func DefaultThresholds() Thresholds {
	return Thresholds{SoftLimit: DefaultSoftLimit, WarningLimit: DefaultWarningLimit}
}

func (t Thresholds) withDefaults() Thresholds {
	if t.SoftLimit <= 0 {
		t.SoftLimit = DefaultSoftLimit
	}
	if t.WarningLimit <= 0 {
		t.WarningLimit = DefaultWarningLimit
	}
	return t
}

// Warning is the concentration assessment for the dominant sector.
// DominantSector is empty when there is no exposure at all.
type Warning struct {
	IsConcentrated bool                         `json:"is_concentrated" msgpack:"is_concentrated"`
	DominantSector string                       `json:"dominant_sector" msgpack:"dominant_sector"`
	Exposure       float64                      `json:"exposure" msgpack:"exposure"`
	Threshold      float64                      `json:"threshold" msgpack:"threshold"`
	Severity       domain.ConcentrationSeverity `json:"severity" msgpack:"severity"`
}

// IsBreachedSector reports whether sector is the dominant sector of a breach
func (w Warning) IsBreachedSector(sector string) bool {
	return w.IsConcentrated && w.DominantSector != "" && w.DominantSector == sector
}

// IsApproachingSector reports whether sector is the dominant sector nearing the limit
func (w Warning) IsApproachingSector(sector string) bool {
	return w.Severity == domain.SeverityApproaching && w.DominantSector != "" && w.DominantSector == sector
}

// Analysis bundles the exposure map with its warning
type Analysis struct {
	ExposureMap map[string]float64 `json:"exposure_map" msgpack:"exposure_map"`
	Warning     Warning            `json:"warning" msgpack:"warning"`
}

// ComputeSectorExposure returns each sector's share of total capital (4 dp).
// Positions with non-positive capital contribute nothing; blank sectors pool under UNKNOWN.
func ComputeSectorExposure(positions []domain.Position, totalCapital float64) map[string]float64 {
	exposure := map[string]float64{}
	if totalCapital <= 0 || !formulas.IsFinite(totalCapital) || len(positions) == 0 {
		return exposure
	}

	byCapital := map[string]float64{}
	for _, p := range positions {
		if p.CapitalAllocated <= 0 || !formulas.IsFinite(p.CapitalAllocated) {
			continue
		}
		byCapital[domain.NormalizeSector(p.Sector)] += p.CapitalAllocated
	}

	for sector, capital := range byCapital {
		exposure[sector] = formulas.Round(capital/totalCapital, 4)
	}
	return exposure
}

// EvaluateConcentrationRisk classifies the largest exposure.
// Ties on exposure go to the alphabetically greater sector name.
func EvaluateConcentrationRisk(exposure map[string]float64, thresholds Thresholds) Warning {
	thresholds = thresholds.withDefaults()

	if len(exposure) == 0 {
		return Warning{
			Threshold: thresholds.SoftLimit,
			Severity:  domain.SeverityOK,
		}
	}

	dominant := ""
	maxExposure := 0.0
	first := true
	for sector, value := range exposure {
		if first || value > maxExposure || (value == maxExposure && sector > dominant) {
			dominant, maxExposure = sector, value
			first = false
		}
	}

	warning := Warning{
		DominantSector: dominant,
		Exposure:       maxExposure,
		Threshold:      thresholds.SoftLimit,
		Severity:       domain.SeverityOK,
	}
	switch {
	case maxExposure > thresholds.SoftLimit:
		warning.Severity = domain.SeveritySoftBreach
		warning.IsConcentrated = true
	case maxExposure > thresholds.WarningLimit:
		warning.Severity = domain.SeverityApproaching
	}
	return warning
}

// AnalyzePortfolioConcentration computes exposure and evaluates it in one call
func AnalyzePortfolioConcentration(positions []domain.Position, totalCapital float64, thresholds Thresholds) Analysis {
	exposure := ComputeSectorExposure(positions, totalCapital)
	return Analysis{
		ExposureMap: exposure,
		Warning:     EvaluateConcentrationRisk(exposure, thresholds),
	}
}
