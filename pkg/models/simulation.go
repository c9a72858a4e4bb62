package models

import "time"

// ConfidenceInterval describes the spread around a simulated probability.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	HalfWidth       float64 `json:"half_width"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// SimulationResult is one per (context_hash, market_type, selection). Immutable
// once written.
type SimulationResult struct {
	ContextHash         string             `json:"context_hash"`
	GameID              string             `json:"game_id"`
	MarketType          MarketType         `json:"market_type"`
	MarketSettlement    MarketSettlement   `json:"market_settlement"`
	SelectionID         string             `json:"selection_id"`
	ModelProbability    float64            `json:"model_probability"`
	CI                  ConfidenceInterval `json:"confidence_interval"`
	DevisedMarketProb   float64            `json:"devigged_market_probability"`
	RawEdge             float64            `json:"raw_edge"`
	EdgePercent         float64            `json:"edge_percent"`
	Converged           bool               `json:"converged"`
	IterationsRun       int                `json:"iterations_run"`
	ModelFairLine       *float64           `json:"model_fair_line,omitempty"`
	ModelFairPrice      *int               `json:"model_fair_price,omitempty"`
	ModelPreferenceID   string             `json:"model_preference_selection_id"`
	SchemaVersion       string             `json:"schema_version"`
	HomeTeamKey         string             `json:"home_team_key"`
	AwayTeamKey         string             `json:"away_team_key"`
	PushProbability     float64            `json:"push_probability"`
	StabilityScore      *float64           `json:"stability_score,omitempty"`
	CreatedAtUTC        time.Time          `json:"created_at_utc"`
	CalibrationVersion  string             `json:"calibration_version"`
}

// Selection is a canonical identifier for one side of a market.
type Selection struct {
	SelectionID           string     `json:"selection_id"`
	TeamDisplayName       string     `json:"team_display_name"`
	Side                  Side       `json:"side"`
	MarketLineForSelection *float64  `json:"market_line_for_selection,omitempty"`
	MarketType            MarketType `json:"market_type"`
}
