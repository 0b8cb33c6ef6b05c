package domain

// HealthStatus is the vitals band of a position
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "HEALTHY"
	HealthWeak      HealthStatus = "WEAK"
	HealthUnhealthy HealthStatus = "UNHEALTHY"
)

// Position flags
const (
	FlagStagnant  = "STAGNANT"
	FlagDataError = "DATA_ERROR"
)

// VolatilityState is the ATR regime relative to its baseline
type VolatilityState string

const (
	VolatilityExpanding   VolatilityState = "EXPANDING"
	VolatilityStable      VolatilityState = "STABLE"
	VolatilityContracting VolatilityState = "CONTRACTING"
)

// Ptr returns a pointer to the state, for SignalOverrides literals
func (s VolatilityState) Ptr() *VolatilityState {
	return &s
}

// MarketPosture is the coarse portfolio stance for a cycle
type MarketPosture string

const (
	PostureRiskOff     MarketPosture = "RISK_OFF"
	PostureDefensive   MarketPosture = "DEFENSIVE"
	PostureNeutral     MarketPosture = "NEUTRAL"
	PostureAggressive  MarketPosture = "AGGRESSIVE"
	PostureOpportunity MarketPosture = "OPPORTUNITY"
)

// BlocksInflows reports whether new capital deployment is categorically blocked
func (p MarketPosture) BlocksInflows() bool {
	return p == PostureRiskOff || p == PostureDefensive
}

// RiskLevel accompanies a posture
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ConcentrationSeverity tiers single-sector exposure
type ConcentrationSeverity string

const (
	SeverityOK          ConcentrationSeverity = "OK"
	SeverityApproaching ConcentrationSeverity = "APPROACHING"
	SeveritySoftBreach  ConcentrationSeverity = "SOFT_BREACH"
)

// OpportunityConfidence grades an upgrade opportunity
type OpportunityConfidence string

const (
	OpportunityHigh   OpportunityConfidence = "HIGH"
	OpportunityMedium OpportunityConfidence = "MEDIUM"
	OpportunityLow    OpportunityConfidence = "LOW"
	OpportunityNA     OpportunityConfidence = "N/A"
)

// DecisionType distinguishes held positions from external candidates
type DecisionType string

const (
	DecisionPosition  DecisionType = "POSITION"
	DecisionCandidate DecisionType = "CANDIDATE"
)

// Action is the recommended step for a decision target
type Action string

// Position actions
const (
	ActionFreeCapital      Action = "FREE_CAPITAL"
	ActionReduceAggressive Action = "REDUCE_AGGRESSIVE"
	ActionTrimRisk         Action = "TRIM_RISK"
	ActionHoldCapped       Action = "HOLD_CAPPED"
	ActionReduce           Action = "REDUCE"
	ActionReview           Action = "REVIEW"
	ActionHold             Action = "HOLD"
	ActionMaintain         Action = "MAINTAIN"
	ActionReduceRisk       Action = "REDUCE_RISK"
)

// Candidate actions
const (
	ActionBlockPosture     Action = "BLOCK_POSTURE"
	ActionBlockRisk        Action = "BLOCK_RISK"
	ActionAllocateCapped   Action = "ALLOCATE_CAPPED"
	ActionAllocateHigh     Action = "ALLOCATE_HIGH"
	ActionAllocateCautious Action = "ALLOCATE_CAUTIOUS"
	ActionAllocate         Action = "ALLOCATE"
	ActionWatchlist        Action = "WATCHLIST"
	ActionIgnore           Action = "IGNORE"
)

// Actions the guardrails know about but the synthesizer never emits
const (
	ActionAllocateAggressive Action = "ALLOCATE_AGGRESSIVE"
	ActionScaleUp            Action = "SCALE_UP"
	ActionDoubleDown         Action = "DOUBLE_DOWN"
	ActionAddPosition        Action = "ADD_POSITION"
)

// Execution plan actions
const (
	ActionExit    Action = "EXIT"
	ActionMonitor Action = "MONITOR"
)

// Suggested actions attached by the vitals scorer
const (
	SuggestReduceExit  = "REDUCE / EXIT"
	SuggestHoldMonitor = "HOLD / MONITOR"
	SuggestHoldScale   = "HOLD / SCALE"
)
