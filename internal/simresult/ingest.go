// Package simresult is the simulation-result ingest: it
// validates a SimulationResult proposed by the external simulation worker
// against its declared context before the pipeline will act on it.
package simresult

import (
	"context"
	"fmt"

	"github.com/xavierbriggs/decision-core/internal/oddsmath"
	"github.com/xavierbriggs/decision-core/pkg/decisionerr"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// ContextLookup resolves a context_hash to its SimulationContext, so Ingest
// can confirm the result references a context that actually exists.
type ContextLookup interface {
	GetSimContext(ctx context.Context, contextHash string) (*models.SimulationContext, error)
}

// ResultStore is the slice of store.SimResultStore that Ingest depends on:
// persisting an accepted result and reading back its siblings to evaluate
// cross-selection symmetry.
type ResultStore interface {
	Put(ctx context.Context, r models.SimulationResult) error
	GetByContext(ctx context.Context, contextHash string) ([]models.SimulationResult, error)
}

// Ingest validates and accepts SimulationResults.
type Ingest struct {
	contexts ContextLookup
	results  ResultStore
}

func New(contexts ContextLookup, results ResultStore) *Ingest {
	return &Ingest{contexts: contexts, results: results}
}

// requiredFields enforces the canonical contract: schema version, event id,
// team identifiers, model_preference_selection_id, and a usable CI.
func requiredFields(r models.SimulationResult) error {
	switch {
	case r.SchemaVersion == "":
		return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeContractFieldMissing, "missing schema_version")
	case r.GameID == "":
		return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeContractFieldMissing, "missing event id")
	case r.HomeTeamKey == "" || r.AwayTeamKey == "":
		return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeContractFieldMissing, "missing team_key identifiers")
	case r.ModelPreferenceID == "":
		return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeContractFieldMissing, "missing model_preference_selection_id")
	case r.CI.HalfWidth <= 0:
		return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeContractFieldMissing, "missing confidence interval half-width")
	}
	return nil
}

// Accept validates r and, if valid, persists it. homeTeamKey/awayTeamKey come
// from the snapshot's competitor list and must match the result's team keys
// exactly, preventing cross-team corruption.
func (in *Ingest) Accept(ctx context.Context, r models.SimulationResult, snapshotHomeTeamKey, snapshotAwayTeamKey string) error {
	if err := requiredFields(r); err != nil {
		return err
	}

	sc, err := in.contexts.GetSimContext(ctx, r.ContextHash)
	if err != nil {
		return decisionerr.Wrap(decisionerr.KindAvailability, decisionerr.CodeContextMismatch, "context lookup failed", err)
	}
	if sc == nil {
		return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeContextMismatch,
			fmt.Sprintf("context_hash %s does not exist", r.ContextHash))
	}

	if r.HomeTeamKey != snapshotHomeTeamKey || r.AwayTeamKey != snapshotAwayTeamKey {
		return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeContextMismatch,
			"simulation result team identifiers do not match snapshot competitors")
	}

	// Symmetry is a property of the market's two reported probabilities
	// together, not of one result in isolation: p_a and p_b are each
	// independently simulated SimulationResult rows sharing a context_hash
	// and market_type, one per selection. The opposing side must already be
	// on record for this check to run; if this is the first of the pair to
	// arrive, symmetry is verified when the second lands.
	if opposing := in.findOpposingSide(ctx, r); opposing != nil {
		deviation, tolerance, ok := oddsmath.ValidateSymmetry(r.ModelProbability, opposing.ModelProbability, r.PushProbability, r.IterationsRun)
		if !ok {
			return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeSymmetryViolation,
				fmt.Sprintf("symmetry deviation %.5f exceeds tolerance %.5f", deviation, tolerance))
		}
	}

	return in.results.Put(ctx, r)
}

// findOpposingSide looks up the other selection already recorded for r's
// (context_hash, market_type), so the symmetry check can compare the two
// independently-simulated probabilities rather than a tautological
// self-complement. Returns nil if no other selection has landed yet, or the
// market is not a 2-way market this check applies to.
func (in *Ingest) findOpposingSide(ctx context.Context, r models.SimulationResult) *models.SimulationResult {
	if r.MarketType != models.MarketSpread && r.MarketType != models.MarketTotal && r.MarketType != models.MarketMoneylineTwo {
		return nil
	}
	existing, err := in.results.GetByContext(ctx, r.ContextHash)
	if err != nil {
		return nil
	}
	for i := range existing {
		if existing[i].MarketType == r.MarketType && existing[i].SelectionID != r.SelectionID {
			return &existing[i]
		}
	}
	return nil
}

// StabilityProbe scores how well a result survives small input
// perturbations. It is not part of Ingest and never blocks it; Score only
// returns the score, and nothing stores it on the result record. The core
// does not run simulations itself, so it can only grade results it is
// given, not regenerate them.
type StabilityProbe struct {
	// MinSurvivalRate is a stability threshold carried for callers; Score
	// does not read it, and no other package reads it either.
	MinSurvivalRate float64
}

// Score returns a stability_score in [0,1] given perturbed probability
// samples (caller-supplied, typically produced by a lightweight resampling
// of the original CI rather than a full re-simulation).
func (p StabilityProbe) Score(original float64, perturbed []float64) float64 {
	if len(perturbed) == 0 {
		return 1.0
	}
	agree := 0
	originalSide := original >= 0.5
	for _, v := range perturbed {
		if (v >= 0.5) == originalSide {
			agree++
		}
	}
	return float64(agree) / float64(len(perturbed))
}
