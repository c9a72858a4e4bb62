package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ContentHash canonicalizes v to sorted-key JSON and returns the full
// hex-encoded SHA-256 digest, giving identical inputs identical hashes
// (deterministic canonicalization). encoding/json writes struct fields in
// declaration order, so v is marshaled once, decoded into generic maps
// (numbers kept as their literal text), and marshaled again, which emits
// every object's keys in sorted order.
func ContentHash(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize for content hash: %w", err)
	}
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("canonicalize for content hash: %w", err)
	}
	data, err = json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("canonicalize for content hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// InputsHash computes the inputs_hash for a MarketDecision replay key:
// SHA-256 over the sorted-key JSON of (context_hash, market_type,
// market_line, market_odds, calibration_version, decision_version).
func InputsHash(contextHash string, marketType string, marketLine *float64, marketOdds int, calibrationVersion string, decisionVersion int) (string, error) {
	payload := struct {
		ContextHash        string   `json:"context_hash"`
		MarketType         string   `json:"market_type"`
		MarketLine         *float64 `json:"market_line"`
		MarketOdds         int      `json:"market_odds"`
		CalibrationVersion string   `json:"calibration_version"`
		DecisionVersion    int      `json:"decision_version"`
	}{contextHash, marketType, marketLine, marketOdds, calibrationVersion, decisionVersion}
	return ContentHash(payload)
}
