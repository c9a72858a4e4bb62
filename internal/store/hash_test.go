package store_test

import (
	"testing"

	"github.com/xavierbriggs/decision-core/internal/store"
)

func TestContentHashStableAndOrderIndependent(t *testing.T) {
	type payload struct {
		A string `json:"a"`
		B int    `json:"b"`
	}

	h1, err := store.ContentHash(payload{A: "x", B: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := store.ContentHash(payload{A: "x", B: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical inputs to hash identically: %s vs %s", h1, h2)
	}

	h3, err := store.ContentHash(payload{A: "x", B: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 == h3 {
		t.Fatal("expected different inputs to hash differently")
	}

	if len(h1) != 64 {
		t.Fatalf("expected full 64-char hex SHA-256 digest, got %d chars", len(h1))
	}

	type reordered struct {
		B int    `json:"b"`
		A string `json:"a"`
	}
	h4, err := store.ContentHash(reordered{B: 1, A: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h4 {
		t.Fatalf("expected field declaration order not to change the hash: %s vs %s", h1, h4)
	}
}

func TestInputsHashStableAcrossEquivalentCalls(t *testing.T) {
	line := -5.5

	h1, err := store.InputsHash("ctx-1", "SPREAD", &line, -110, "cal-v3", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := store.InputsHash("ctx-1", "SPREAD", &line, -110, "cal-v3", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical inputs_hash for equivalent inputs: %s vs %s", h1, h2)
	}

	h3, err := store.InputsHash("ctx-1", "SPREAD", &line, -110, "cal-v3", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 == h3 {
		t.Fatal("expected decision_version change to change inputs_hash")
	}
}

func TestInputsHashHandlesNilMarketLine(t *testing.T) {
	h, err := store.InputsHash("ctx-1", "MONEYLINE_2WAY", nil, -150, "cal-v3", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h) != 64 {
		t.Fatalf("expected full 64-char hex SHA-256 digest, got %d chars", len(h))
	}
}
