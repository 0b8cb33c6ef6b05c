package formulas

import (
	"github.com/markcheno/go-talib"
)

// TrueRanges returns the true range of every bar after the first.
//
//	TR[i] = max(high[i]-low[i], |high[i]-close[i-1]|, |low[i]-close[i-1]|)
//
// The result has len(close)-1 entries; nil when fewer than two bars are given
// or the series lengths disagree.
func TrueRanges(high, low, close []float64) []float64 {
	if len(close) < 2 || len(high) != len(close) || len(low) != len(close) {
		return nil
	}

	tr := talib.TRange(high, low, close)

	// talib leaves the first slot empty because bar 0 has no previous close
	if len(tr) == len(close) {
		tr = tr[1:]
	}
	return tr
}

// AverageTrueRange is the simple mean of the last period true ranges.
// Returns nil if there are fewer than period+1 bars.
func AverageTrueRange(high, low, close []float64, period int) *float64 {
	if period < 1 || len(close) < period+1 {
		return nil
	}

	tr := TrueRanges(high, low, close)
	if len(tr) < period {
		return nil
	}

	atr := Mean(tr[len(tr)-period:])
	if !IsFinite(atr) {
		return nil
	}
	return &atr
}
