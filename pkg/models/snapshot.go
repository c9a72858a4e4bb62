package models

import "time"

// MarketLine is one priced side of a market at one book.
type MarketLine struct {
	MarketType   MarketType `json:"market_type"`
	Side         Side       `json:"side"`
	Point        *float64   `json:"point,omitempty"` // nil for moneyline
	AmericanOdds int        `json:"american_odds"`
	DecimalOdds  float64    `json:"decimal_odds"`
}

// OddsSnapshot is an immutable record for one (game, bookmaker, timestamp).
// Identity is its content hash; it is never updated or deleted.
type OddsSnapshot struct {
	ContentHash string       `json:"content_hash"`
	GameID      string       `json:"game_id"`
	Sport       Sport        `json:"sport"`
	BookKey     string       `json:"book_key"`
	CapturedAt  time.Time    `json:"captured_at"`
	Lines       []MarketLine `json:"lines"`
}

// InjuryEntry is one player's status within an InjurySnapshot.
type InjuryEntry struct {
	Player       string  `json:"player"`
	Status       string  `json:"status"`
	ImpactFactor float64 `json:"impact_factor"`
}

// InjurySnapshot is an immutable per-team injury list, bound by content hash.
type InjurySnapshot struct {
	ContentHash string        `json:"content_hash"`
	TeamKey     string        `json:"team_key"`
	CapturedAt  time.Time     `json:"captured_at"`
	Entries     []InjuryEntry `json:"entries"`
}

// SimulationContext is the immutable tuple identifying one simulation run's inputs.
// Its identity, ContextHash, is SHA-256 over its canonical serialization.
type SimulationContext struct {
	ContextHash      string    `json:"context_hash"`
	GameID           string    `json:"game_id"`
	Sport            Sport     `json:"sport"`
	ModelVersion     string    `json:"model_version"`
	EngineVersion    string    `json:"engine_version"`
	DataFeedVersion  string    `json:"data_feed_version"`
	OddsSnapshotHash string    `json:"odds_snapshot_hash"`
	InjurySnapshotHashes []string `json:"injury_snapshot_hashes"`
	PaceInputs       map[string]float64 `json:"pace_inputs,omitempty"`
	IterationCount   int       `json:"iteration_count"`
	SeedBase         int64     `json:"seed_base"`
	CreatedAtUTC     time.Time `json:"created_at_utc"`
	Postseason       bool      `json:"postseason,omitempty"`
}
