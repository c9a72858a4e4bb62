package query_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/xavierbriggs/decision-core/internal/query"
	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/internal/store"
)

func newHandler() *query.Handler {
	return query.NewHandler(
		store.NewSignalStore(nil),
		store.NewSimResultStore(nil),
		sportconfig.NewRegistry(),
		query.MetaInfo{EngineBuildID: "test-build", SimVersion: "v1", DeployedAt: "2026-07-31", Environment: "test"},
	)
}

// withGameID attaches a chi URL param the way the router would, without
// requiring a live route match.
func withGameID(req *http.Request, gameID string) *http.Request {
	rctx := chi.NewRouteContext()
	if gameID != "" {
		rctx.URLParams.Add("game_id", gameID)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleGameDecisionsRequiresGameID(t *testing.T) {
	h := newHandler()
	req := withGameID(httptest.NewRequest(http.MethodGet, "/api/v1/game-decisions/?league=NBA", nil), "")
	rec := httptest.NewRecorder()

	h.HandleGameDecisions(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing game_id, got %d", rec.Code)
	}
}

func TestHandleGameDecisionsRequiresLeague(t *testing.T) {
	h := newHandler()
	req := withGameID(httptest.NewRequest(http.MethodGet, "/api/v1/game-decisions/G1", nil), "G1")
	rec := httptest.NewRecorder()

	h.HandleGameDecisions(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing league, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "league") {
		t.Errorf("expected error body to mention league, got %q", rec.Body.String())
	}
}

func TestHandleGameDecisionsUnknownLeague(t *testing.T) {
	h := newHandler()
	req := withGameID(httptest.NewRequest(http.MethodGet, "/api/v1/game-decisions/G1?league=CRICKET", nil), "G1")
	rec := httptest.NewRecorder()

	h.HandleGameDecisions(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown league, got %d", rec.Code)
	}
}

func TestHandleMarketStateRegistryRequiresGameID(t *testing.T) {
	h := newHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/market-state-registry", nil)
	rec := httptest.NewRecorder()

	h.HandleMarketStateRegistry(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing game_id, got %d", rec.Code)
	}
}

func TestHandleMeta(t *testing.T) {
	h := newHandler()
	req := httptest.NewRequest(http.MethodGet, "/meta", nil)
	rec := httptest.NewRecorder()

	h.HandleMeta(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, want := range []string{"test-build", "v1", "2026-07-31"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("expected meta body to contain %q, got %q", want, rec.Body.String())
		}
	}
}

func TestHandleHealth(t *testing.T) {
	h := newHandler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
