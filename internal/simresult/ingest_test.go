package simresult_test

import (
	"context"
	"testing"

	"github.com/xavierbriggs/decision-core/internal/simresult"
	"github.com/xavierbriggs/decision-core/pkg/decisionerr"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

type fakeContextLookup struct {
	ctx *models.SimulationContext
	err error
}

func (f fakeContextLookup) GetSimContext(ctx context.Context, contextHash string) (*models.SimulationContext, error) {
	return f.ctx, f.err
}

// fakeResultStore is an in-memory stand-in for store.SimResultStore, letting
// tests exercise the cross-selection symmetry lookup without a database.
type fakeResultStore struct {
	results []models.SimulationResult
}

func (f *fakeResultStore) Put(ctx context.Context, r models.SimulationResult) error {
	f.results = append(f.results, r)
	return nil
}

func (f *fakeResultStore) GetByContext(ctx context.Context, contextHash string) ([]models.SimulationResult, error) {
	var out []models.SimulationResult
	for _, r := range f.results {
		if r.ContextHash == contextHash {
			out = append(out, r)
		}
	}
	return out, nil
}

func validResult() models.SimulationResult {
	return models.SimulationResult{
		ContextHash:       "ctx-1",
		GameID:            "G1",
		MarketType:        models.MarketSpread,
		SchemaVersion:     "v1",
		HomeTeamKey:       "home",
		AwayTeamKey:       "away",
		ModelPreferenceID: "sel-home",
		ModelProbability:  0.55,
		PushProbability:   0,
		IterationsRun:     10000,
		CI:                models.ConfidenceInterval{HalfWidth: 0.02},
	}
}

func TestAcceptRejectsMissingRequiredFields(t *testing.T) {
	in := simresult.New(fakeContextLookup{ctx: &models.SimulationContext{}}, &fakeResultStore{})
	r := validResult()
	r.SchemaVersion = ""

	err := in.Accept(context.Background(), r, "home", "away")
	if err == nil {
		t.Fatal("expected error for missing schema_version")
	}
	if !decisionerr.IsKind(err, decisionerr.KindIntegrity) {
		t.Errorf("expected KindIntegrity, got %v", err)
	}
}

func TestAcceptRejectsUnknownContext(t *testing.T) {
	in := simresult.New(fakeContextLookup{ctx: nil}, &fakeResultStore{})

	err := in.Accept(context.Background(), validResult(), "home", "away")
	if err == nil {
		t.Fatal("expected error for unknown context_hash")
	}
	if !decisionerr.IsKind(err, decisionerr.KindIntegrity) {
		t.Errorf("expected KindIntegrity, got %v", err)
	}
}

func TestAcceptRejectsTeamMismatch(t *testing.T) {
	in := simresult.New(fakeContextLookup{ctx: &models.SimulationContext{}}, &fakeResultStore{})

	err := in.Accept(context.Background(), validResult(), "someoneelse", "away")
	if err == nil {
		t.Fatal("expected error for team identifier mismatch")
	}
	if !decisionerr.IsKind(err, decisionerr.KindIntegrity) {
		t.Errorf("expected KindIntegrity, got %v", err)
	}
}

func TestAcceptRejectsSymmetryViolation(t *testing.T) {
	results := &fakeResultStore{}
	in := simresult.New(fakeContextLookup{ctx: &models.SimulationContext{}}, results)
	ctx := context.Background()

	// Seed the opposing (away) selection first: its own independently
	// simulated probability of 0.9 leaves no room for a 0.55 home
	// probability to sum anywhere near 1.0.
	away := validResult()
	away.SelectionID = "sel-away"
	away.ModelProbability = 0.9
	if err := results.Put(ctx, away); err != nil {
		t.Fatalf("seed opposing side: %v", err)
	}

	home := validResult()
	home.SelectionID = "sel-home"
	home.ModelProbability = 0.55
	home.PushProbability = 0

	err := in.Accept(ctx, home, "home", "away")
	if err == nil {
		t.Fatal("expected symmetry violation error")
	}
	var de *decisionerr.Error
	if e, ok := err.(*decisionerr.Error); ok {
		de = e
	}
	if de == nil || de.Code != decisionerr.CodeSymmetryViolation {
		t.Errorf("expected CodeSymmetryViolation, got %v", err)
	}
}

func TestAcceptPassesSymmetryWhenSidesAgree(t *testing.T) {
	results := &fakeResultStore{}
	in := simresult.New(fakeContextLookup{ctx: &models.SimulationContext{}}, results)
	ctx := context.Background()

	away := validResult()
	away.SelectionID = "sel-away"
	away.ModelProbability = 0.45
	if err := results.Put(ctx, away); err != nil {
		t.Fatalf("seed opposing side: %v", err)
	}

	home := validResult()
	home.SelectionID = "sel-home"
	home.ModelProbability = 0.55
	home.PushProbability = 0

	if err := in.Accept(ctx, home, "home", "away"); err != nil {
		t.Fatalf("expected no symmetry violation, got %v", err)
	}
}

func TestStabilityProbeScore(t *testing.T) {
	p := simresult.StabilityProbe{MinSurvivalRate: 0.8}

	score := p.Score(0.6, []float64{0.55, 0.52, 0.48, 0.58})
	if score != 0.75 {
		t.Errorf("expected survival rate 0.75, got %v", score)
	}

	if got := p.Score(0.6, nil); got != 1.0 {
		t.Errorf("expected score 1.0 for no perturbations, got %v", got)
	}
}
