// Package market_hours decides whether the US market is open and which data mode a cycle runs in.
package market_hours

import (
	"time"

	"github.com/aristath/vitals/internal/domain"
)

// Regular NYSE session, Eastern time
const (
	openHour    = 9
	openMinute  = 30
	closeHour   = 16
	closeMinute = 0
)

// Status reasons
const (
	ReasonWeekend    = "Weekend"
	ReasonPreMarket  = "Pre-market"
	ReasonAfterHours = "After hours"
	ReasonOpen       = "Market Open"
)

// Data sources
const (
	SourceBroker = "Broker API"
	SourceMock   = "Synthetic/Mock Data"
)

// MarketStatus is the open/closed state at a point in time
type MarketStatus struct {
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// IsOpen reports whether the market is open
func (s MarketStatus) IsOpen() bool {
	return s.Status == domain.MarketOpen
}

var eastern = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// no tzdata: fixed EST offset, wrong by an hour during DST
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// Status returns the regular-session status at now. Holidays are not modelled.
func Status(now time.Time) MarketStatus {
	et := now.In(eastern)
	status := MarketStatus{Status: domain.MarketClosed, Timestamp: now.UTC()}

	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		status.Reason = ReasonWeekend
		return status
	}

	open := time.Date(et.Year(), et.Month(), et.Day(), openHour, openMinute, 0, 0, eastern)
	closing := time.Date(et.Year(), et.Month(), et.Day(), closeHour, closeMinute, 0, 0, eastern)

	switch {
	case et.Before(open):
		status.Reason = ReasonPreMarket
	case et.After(closing):
		status.Reason = ReasonAfterHours
	default:
		status.Status = domain.MarketOpen
		status.Reason = ReasonOpen
	}
	return status
}

// ResolveExecutionContext picks LIVE only when the market is open and broker
// credentials exist; everything else runs on demo data.
func ResolveExecutionContext(now time.Time, hasCredentials bool, minimumReserve float64, includeSuperiority bool) domain.ExecutionContext {
	status := Status(now)
	ctx := domain.ExecutionContext{
		SystemMode:         domain.SystemModeDemo,
		MarketStatus:       status.Status,
		MarketReason:       status.Reason,
		DataFeedMode:       domain.SystemModeDemo,
		DataCapability:     SourceMock,
		MinimumReserve:     minimumReserve,
		IncludeSuperiority: includeSuperiority,
	}

	switch {
	case status.IsOpen() && hasCredentials:
		ctx.SystemMode = domain.SystemModeLive
		ctx.DataFeedMode = domain.SystemModeLive
		ctx.DataCapability = SourceBroker
		ctx.Description = "Real-time market data enabled."
	case status.IsOpen():
		ctx.Description = "Market is open, but API keys are missing. Fallback to Demo."
	default:
		ctx.Description = "Market is closed. Using synthetic data for logic validation."
	}
	return ctx
}
