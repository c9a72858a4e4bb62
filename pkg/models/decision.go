package models

import "time"

// Edge carries the point-based and EV-based edge measurements for one decision.
type Edge struct {
	EdgePoints float64 `json:"edge_points"`
	EdgeEV     float64 `json:"edge_ev"`
}

// DecisionDebug is the transparency payload the validator and auditors read.
type DecisionDebug struct {
	InputsHash string `json:"inputs_hash"`
}

// MarketDecision is the result of classification for one (game, market_type)
// at one context_hash.
type MarketDecision struct {
	GameID                  string           `json:"game_id"`
	Sport                   Sport            `json:"sport"`
	MarketType              MarketType       `json:"market_type"`
	MarketSettlement        MarketSettlement `json:"market_settlement"`
	ContextHash             string           `json:"context_hash"`
	ModelPreferenceSelectionID string        `json:"model_preference_selection_id"`
	RecommendedSelectionID  string           `json:"recommended_selection_id"`
	DirectionSelectionID    string           `json:"direction_selection_id"`
	MarketLine              *float64         `json:"market_line,omitempty"`
	MarketOdds              int              `json:"market_odds"`
	Edge                    Edge             `json:"edge"`
	ModelProbabilityRaw     float64          `json:"model_probability_raw"`
	ModelProbabilityAdjusted float64         `json:"model_probability_adjusted"`
	Classification          Classification   `json:"classification"`
	ReleaseStatus           ReleaseStatus    `json:"release_status"`
	Reasons                 []string         `json:"reasons"`
	Debug                   DecisionDebug    `json:"debug"`
	DecisionVersion         int              `json:"decision_version"`
	CalibrationVersion      string           `json:"calibration_version"`
	ComputedAt              time.Time        `json:"computed_at"`
}

// GameDecisions bundles the three market decisions for one game sharing one
// inputs_hash and computed_at timestamp.
type GameDecisions struct {
	GameID        string          `json:"game_id"`
	HomeTeamName  string          `json:"home_team_name"`
	AwayTeamName  string          `json:"away_team_name"`
	Spread        *MarketDecision `json:"spread,omitempty"`
	Moneyline     *MarketDecision `json:"moneyline,omitempty"`
	Total         *MarketDecision `json:"total,omitempty"`
	InputsHash    string          `json:"inputs_hash"`
	DecisionVersion int           `json:"decision_version"`
	ComputedAt    time.Time       `json:"computed_at"`
}

// SignalState enumerates the lifecycle states of a Signal.
type SignalState string

const (
	SignalPending          SignalState = "PENDING"
	SignalActiveEdge       SignalState = "ACTIVE_EDGE"
	SignalActiveMonitoring SignalState = "ACTIVE_MONITORING"
	SignalWeakened         SignalState = "WEAKENED"
	SignalInvalidated      SignalState = "INVALIDATED"
	SignalSettled          SignalState = "SETTLED"
)

// Signal is one append-only record in a (game, market_type) lifecycle chain.
type Signal struct {
	SignalID         string      `json:"signal_id"`
	PreviousSignalID string      `json:"previous_signal_id,omitempty"`
	GameID           string      `json:"game_id"`
	MarketType       MarketType  `json:"market_type"`
	SelectionID      string      `json:"selection_id"`
	State            SignalState `json:"state"`
	Reason           string      `json:"reason,omitempty"`
	DecisionSnapshot MarketDecision `json:"decision_snapshot"`
	CreatedAtUTC     time.Time   `json:"created_at_utc"`
}

// TicketTerms locks the price and line a PublishedPrediction was released at.
type TicketTerms struct {
	MarketLine *float64 `json:"market_line,omitempty"`
	Price      int      `json:"price"`
	BookKey    string   `json:"book_key"`
}

// PublishedPrediction is an immutable record of one release to one channel.
type PublishedPrediction struct {
	PredictionID       string      `json:"prediction_id"`
	Channel            string      `json:"channel"`
	Visibility         string      `json:"visibility"`
	SignalID           string      `json:"signal_id"`
	MarketSnapshotID   string      `json:"market_snapshot_id"`
	EngineVersion      string      `json:"engine_version"`
	ModelVersion       string      `json:"model_version"`
	CalibrationVersion string      `json:"calibration_version"`
	ProbabilityCalibrated float64  `json:"p_calibrated"`
	MarketKey          string      `json:"market_key"`
	SelectionID        string      `json:"selection_id"`
	TicketTerms        TicketTerms `json:"ticket_terms"`
	IsOfficial         bool        `json:"is_official"`
	VoidReason         string      `json:"void_reason,omitempty"`
	PublishedAtUTC     time.Time   `json:"published_at_utc"`
}

// EventResult holds the actual scores and completion state for a game.
type EventResult struct {
	GameID       string    `json:"game_id"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	Completed    bool      `json:"completed"`
	FinalizedAt  time.Time `json:"finalized_at"`
}

// GradingOutcome enumerates settlement outcomes.
type GradingOutcome string

const (
	GradingWin  GradingOutcome = "WIN"
	GradingLoss GradingOutcome = "LOSS"
	GradingPush GradingOutcome = "PUSH"
	GradingVoid GradingOutcome = "VOID"
)

// Grading is the per-PublishedPrediction settlement record.
type Grading struct {
	PredictionID  string         `json:"prediction_id"`
	Outcome       GradingOutcome `json:"outcome"`
	CLV           *float64       `json:"clv,omitempty"`
	RealizedUnits float64        `json:"realized_units"`
	GradedAtUTC   time.Time      `json:"graded_at_utc"`
}

// CalibrationKnot is one breakpoint of an isotonic calibration fit: raw
// model probabilities at or above X map toward Y.
type CalibrationKnot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CalibrationSegment versions a probability-calibration model for one
// sport × market × bucket segment. Exactly one of Knots (isotonic) or
// PlattA/PlattB (Platt scaling) carries the fit, selected by Method.
type CalibrationSegment struct {
	CalibrationVersion string            `json:"calibration_version"`
	Sport              Sport             `json:"sport"`
	MarketType         MarketType        `json:"market_type"`
	Bucket             string            `json:"bucket"`
	Method             string            `json:"method"` // "isotonic" | "platt"
	Knots              []CalibrationKnot `json:"knots,omitempty"`
	PlattA             float64           `json:"platt_a,omitempty"`
	PlattB             float64           `json:"platt_b,omitempty"`
	SampleCount        int               `json:"sample_count"`
	TrainedAt          time.Time         `json:"trained_at"`
}

// AuditLog is one append-only record per produced MarketDecision.
type AuditLog struct {
	EventID            string         `json:"event_id"`
	InputsHash         string         `json:"inputs_hash"`
	DecisionVersion    int            `json:"decision_version"`
	Classification     Classification `json:"classification"`
	ReleaseStatus      ReleaseStatus  `json:"release_status"`
	EdgePoints         float64        `json:"edge_points"`
	ModelProbability   float64        `json:"model_probability"`
	TraceID            string         `json:"trace_id"`
	EngineVersion      string         `json:"engine_version"`
	CalibrationVersion string         `json:"calibration_version,omitempty"`
	MarketType          MarketType    `json:"market_type"`
	League             Sport          `json:"league"`
	RetentionExpiresAt time.Time      `json:"retention_expires_at"`
	LoggedAt           time.Time      `json:"logged_at"`
}
