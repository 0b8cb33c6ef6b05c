package domain

// System modes
const (
	SystemModeLive       = "LIVE"
	SystemModeDemo       = "DEMO"
	SystemModeValidation = "VALIDATION"
)

// Market status values
const (
	MarketOpen   = "OPEN"
	MarketClosed = "CLOSED"
)

// DefaultMinimumReserve is the cash floor below which capital deployment is blocked
const DefaultMinimumReserve = 50000.0

// ExecutionContext describes the environment a cycle runs in. It is built once
// by the caller and passed in; the decision core never reads process state.
type ExecutionContext struct {
	SystemMode         string  `json:"system_mode" msgpack:"system_mode"`
	MarketStatus       string  `json:"market_status" msgpack:"market_status"`
	MarketReason       string  `json:"market_reason,omitempty" msgpack:"market_reason,omitempty"`
	DataFeedMode       string  `json:"data_feed_mode" msgpack:"data_feed_mode"`
	DataCapability     string  `json:"data_capability" msgpack:"data_capability"`
	Description        string  `json:"description,omitempty" msgpack:"description,omitempty"`
	MinimumReserve     float64 `json:"minimum_reserve" msgpack:"minimum_reserve"`
	IncludeSuperiority bool    `json:"include_superiority" msgpack:"include_superiority"`
}

// DefaultExecutionContext is an offline demo context with the standard reserve
func DefaultExecutionContext() ExecutionContext {
	return ExecutionContext{
		SystemMode:         SystemModeDemo,
		MarketStatus:       MarketClosed,
		DataFeedMode:       SystemModeDemo,
		DataCapability:     "Synthetic/Mock Data",
		MinimumReserve:     DefaultMinimumReserve,
		IncludeSuperiority: true,
	}
}
