// Package orchestrator is the per-game scheduler: at a sport-derived
// cadence it fetches odds, issues a simulation request on change, runs the
// decide pipeline on completion, updates the signal, and publishes or
// voids. Duplicate pipeline starts collapse per (game, context_hash) via
// singleflight, and provider/simulator calls are throttled with
// golang.org/x/time/rate.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/xavierbriggs/decision-core/internal/audit"
	"github.com/xavierbriggs/decision-core/internal/calibration"
	"github.com/xavierbriggs/decision-core/internal/classifier"
	"github.com/xavierbriggs/decision-core/internal/decision"
	"github.com/xavierbriggs/decision-core/internal/publish"
	"github.com/xavierbriggs/decision-core/internal/rcl"
	"github.com/xavierbriggs/decision-core/internal/selection"
	"github.com/xavierbriggs/decision-core/internal/signal"
	"github.com/xavierbriggs/decision-core/internal/simresult"
	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/internal/store"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// Cadence holds the polling intervals: base/upcoming, aggressive
// pre-game rampup, and live-play intervals.
type Cadence struct {
	UpcomingInterval time.Duration
	PreGameRampup    time.Duration
	LiveInterval     time.Duration
}

// DefaultCadence is the fallback used when a sport has no override.
var DefaultCadence = Cadence{
	UpcomingInterval: 5 * time.Minute,
	PreGameRampup:    30 * time.Minute,
	LiveInterval:     30 * time.Second,
}

// GameStatus mirrors the minimal status signal the scheduler needs.
type GameStatus string

const (
	StatusUpcoming GameStatus = "upcoming"
	StatusLive     GameStatus = "live"
	StatusFinal    GameStatus = "final"
)

// OddsProvider fetches the latest odds/injury snapshot for a game.
type OddsProvider interface {
	FetchOdds(ctx context.Context, gameID string) (models.OddsSnapshot, error)
	FetchInjuries(ctx context.Context, gameID string) (models.InjurySnapshot, error)
	GameStatus(ctx context.Context, gameID string) (GameStatus, time.Time, error)
}

// Simulator runs the external simulation worker and returns one result per
// market_type for the given context.
type Simulator interface {
	Simulate(ctx context.Context, simCtx models.SimulationContext) ([]models.SimulationResult, error)
}

// PublicationNotifier receives every PublishedPrediction state change for
// downstream consumers. Emission is best-effort: the publication record in
// the store is the source of truth, the event is a notification.
type PublicationNotifier interface {
	PublishPrediction(ctx context.Context, pub models.PublishedPrediction) error
}

// nextInterval picks the next poll delay from game status and tip-off time.
func nextInterval(cadence Cadence, status GameStatus, commenceTime time.Time) time.Duration {
	switch status {
	case StatusLive:
		return cadence.LiveInterval
	case StatusFinal:
		return 0
	case StatusUpcoming:
		if time.Until(commenceTime) < cadence.PreGameRampup {
			return time.Minute
		}
		return cadence.UpcomingInterval
	default:
		return cadence.UpcomingInterval
	}
}

// GameScheduler drives one game's full ingest -> simulate -> decide ->
// publish -> grade loop.
type GameScheduler struct {
	GameID string
	Sport  models.Sport

	// HomeTeamKey/AwayTeamKey are the canonical team identifiers for this
	// game; Accept cross-checks every incoming SimulationResult against
	// them to catch a result computed for the wrong matchup.
	HomeTeamKey string
	AwayTeamKey string

	Provider  OddsProvider
	Simulator Simulator

	// Registry supplies the sport's thresholds including any YAML
	// overrides applied at startup; nil falls back to the LOCKED defaults.
	Registry *sportconfig.Registry

	Snapshots    *store.SnapshotStore
	SimResults   *store.SimResultStore
	SignalStore  *store.SignalStore
	PublishStore *store.PublishStore
	Calibrations *store.CalibrationStore
	Audit        *audit.Logger
	Events       PublicationNotifier

	Competitors decision.Competitors
	BookKey     string

	OddsLimiter *rate.Limiter
	SimLimiter  *rate.Limiter

	group singleflight.Group

	// recentTiers is the per-market classification history feeding the
	// N-of-M confirmation window. Only the pipeline worker touches it, so
	// no locking is needed.
	recentTiers map[models.MarketType][]models.Classification
}

// maxTierHistory bounds the per-market classification history; the
// confirmation window only ever reads a short suffix.
const maxTierHistory = 16

func (g *GameScheduler) recordTier(marketType models.MarketType, tier models.Classification) []models.Classification {
	if g.recentTiers == nil {
		g.recentTiers = make(map[models.MarketType][]models.Classification)
	}
	history := append(g.recentTiers[marketType], tier)
	if len(history) > maxTierHistory {
		history = history[len(history)-maxTierHistory:]
	}
	g.recentTiers[marketType] = history
	return history
}

// teamKeyFor maps a team-backed side to its canonical team key; over/under
// sides have no team.
func (g *GameScheduler) teamKeyFor(side models.Side) string {
	switch side {
	case models.SideHome:
		return g.HomeTeamKey
	case models.SideAway:
		return g.AwayTeamKey
	default:
		return ""
	}
}

// Run loops until ctx is cancelled or the game reaches StatusFinal.
func (g *GameScheduler) Run(ctx context.Context, cadence Cadence) {
	for {
		status, commence, err := g.Provider.GameStatus(ctx, g.GameID)
		if err != nil {
			log.Printf("[%s] status fetch error: %v", g.GameID, err)
			status, commence = StatusUpcoming, time.Now().Add(cadence.UpcomingInterval)
		}

		interval := nextInterval(cadence, status, commence)

		// Each pass carries a deadline derived from the cadence: a pass
		// that cannot finish before the next tick is cancelled and writes
		// no partial decision.
		deadline := interval
		if deadline <= 0 {
			deadline = cadence.UpcomingInterval
		}
		tickCtx, cancelTick := context.WithTimeout(ctx, deadline)
		if err := g.tick(tickCtx); err != nil {
			log.Printf("[%s] tick error: %v", g.GameID, err)
		}
		cancelTick()

		if interval <= 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// tick performs one polling cycle: fetch odds, and on change, collapse
// duplicate pipeline runs for the same context_hash via singleflight.
func (g *GameScheduler) tick(ctx context.Context) error {
	if g.OddsLimiter != nil {
		if err := g.OddsLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("odds rate limit: %w", err)
		}
	}

	odds, err := g.Provider.FetchOdds(ctx, g.GameID)
	if err != nil {
		return fmt.Errorf("fetch odds: %w", err)
	}
	injuries, err := g.Provider.FetchInjuries(ctx, g.GameID)
	if err != nil {
		return fmt.Errorf("fetch injuries: %w", err)
	}

	oddsHash, err := g.Snapshots.PutOddsSnapshot(ctx, odds)
	if err != nil {
		return fmt.Errorf("store odds snapshot: %w", err)
	}
	injuryHash, err := g.Snapshots.PutInjurySnapshot(ctx, injuries)
	if err != nil {
		return fmt.Errorf("store injury snapshot: %w", err)
	}

	simCtx := models.SimulationContext{
		GameID:            g.GameID,
		Sport:             g.Sport,
		OddsSnapshotHash:  oddsHash,
		InjurySnapshotHashes: []string{injuryHash},
	}
	contextHash, err := g.Snapshots.PutSimContext(ctx, simCtx)
	if err != nil {
		return fmt.Errorf("store sim context: %w", err)
	}

	_, err, _ = g.group.Do(contextHash, func() (interface{}, error) {
		return nil, g.runPipeline(ctx, contextHash)
	})
	return err
}

// configFor resolves the sport's thresholds through the override-aware
// registry when one is wired, else the LOCKED defaults.
func (g *GameScheduler) configFor() (sportconfig.Config, error) {
	if g.Registry == nil {
		return sportconfig.DefaultConfigFor(g.Sport), nil
	}
	return g.Registry.ConfigFor(g.Sport)
}

// runPipeline executes simulate -> decide -> publish for one context_hash,
// exactly once regardless of concurrent callers sharing that key.
func (g *GameScheduler) runPipeline(ctx context.Context, contextHash string) error {
	simCtx, err := g.Snapshots.GetSimContext(ctx, contextHash)
	if err != nil {
		return fmt.Errorf("load sim context: %w", err)
	}

	if g.SimLimiter != nil {
		if err := g.SimLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("sim rate limit: %w", err)
		}
	}

	results, err := g.Simulator.Simulate(ctx, *simCtx)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	for _, res := range results {
		if err := g.HandleSimResult(ctx, res, contextHash); err != nil {
			log.Printf("[%s] sim result for %s rejected: %v", g.GameID, res.MarketType, err)
		}
	}

	return nil
}

// HandleSimResult runs one SimulationResult through ingest -> calibrate ->
// classify -> assemble -> audit -> signal -> publish. It is exported so a
// stream-driven caller (a SimulationResult arriving on bus.Consumer rather
// than from a directly invoked Simulator) can feed it without going through
// runPipeline's polling/singleflight machinery.
func (g *GameScheduler) HandleSimResult(ctx context.Context, res models.SimulationResult, contextHash string) error {
	cfg, err := g.configFor()
	if err != nil {
		return err
	}
	ingest := simresult.New(g.Snapshots, g.SimResults)
	signalMgr := signal.NewManager(g.SignalStore)
	gate := publish.NewGate(g.PublishStore)

	settlement := res.MarketSettlement
	if settlement == "" {
		settlement = models.SettlementFullGame
	}
	if g.Registry != nil {
		if err := g.Registry.ValidateMarketContract(g.Sport, res.MarketType, settlement); err != nil {
			return fmt.Errorf("market contract: %w", err)
		}
	}

	if err := ingest.Accept(ctx, res, g.HomeTeamKey, g.AwayTeamKey); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	simContext, err := g.Snapshots.GetSimContext(ctx, contextHash)
	if err != nil {
		return fmt.Errorf("load sim context: %w", err)
	}
	postseason := simContext != nil && simContext.Postseason

	staleOdds := !res.CreatedAtUTC.IsZero() && cfg.MaxOddsAge > 0 &&
		time.Since(res.CreatedAtUTC) > cfg.MaxOddsAge

	// Resolve the offered market for the result's preferred selection from
	// the odds snapshot its context was built against. The model is always
	// compared to the book's offered line and price, never to its own fair
	// values; a result whose preference matches no offered selection has no
	// market to bet into and fails integrity.
	var (
		marketLinePtr *float64
		preferredSide models.Side
		haveMarket    bool
	)
	marketOdds := -110
	bookKey := g.BookKey
	if simContext != nil && simContext.OddsSnapshotHash != "" {
		snap, err := g.Snapshots.GetOddsSnapshot(ctx, simContext.OddsSnapshotHash)
		if err != nil {
			return fmt.Errorf("load odds snapshot: %w", err)
		}
		if snap != nil {
			for _, offered := range snap.Lines {
				if offered.MarketType != res.MarketType {
					continue
				}
				if selection.ID(g.GameID, res.MarketType, offered.Side, offered.Point, snap.BookKey) == res.ModelPreferenceID {
					marketLinePtr = offered.Point
					marketOdds = offered.AmericanOdds
					preferredSide = offered.Side
					bookKey = snap.BookKey
					haveMarket = true
					break
				}
			}
		}
	}

	modelLine := 0.0
	if res.ModelFairLine != nil {
		modelLine = *res.ModelFairLine
	}

	rclOut := rcl.Result{RCLPassed: true}
	if res.MarketType == models.MarketTotal {
		rclOut = rcl.Evaluate(rcl.Input{
			ModelTotal:          modelLine,
			HistoricalMean:      cfg.LeagueTotalMean,
			HistoricalStdDev:    cfg.LeagueTotalStdDev,
			RegulationMinutes:   cfg.RegulationMinutes,
			PaceFeasibilityCeil: cfg.PaceFeasibilityCeiling,
		})
		// The RCL may have clamped an outlier projection; every stage
		// downstream sees the clamped value, never the raw one.
		modelLine = rclOut.ClampedModelTotal
	}

	zVariance := 0.0
	if cfg.NormalCIHalfWidth > 0 {
		zVariance = res.CI.HalfWidth / cfg.NormalCIHalfWidth
	}

	// The active per-segment calibration model runs first; the four-stage
	// engine then compresses and gates the calibrated probability. The
	// decision records the segment version actually applied.
	probability := res.ModelProbability
	calibrationVersion := res.CalibrationVersion
	if g.Calibrations != nil {
		if seg, err := g.Calibrations.Active(ctx, g.Sport, res.MarketType, "default"); err == nil && seg != nil {
			probability = calibration.ApplySegment(*seg, probability)
			calibrationVersion = seg.CalibrationVersion
		}
	}

	// The market anchor is the offered point for line markets and the
	// devigged market probability for moneylines.
	modelValue, marketValue := modelLine, modelLine
	if res.MarketType == models.MarketSpread || res.MarketType == models.MarketTotal {
		if marketLinePtr != nil {
			marketValue = *marketLinePtr
		}
	} else {
		modelValue, marketValue = probability, res.DevisedMarketProb
	}

	calOut := calibration.Apply(cfg, calibration.Input{
		ModelValue: modelValue, MarketValue: marketValue,
		RawProbability: probability, ZVariance: zVariance,
		Postseason: postseason,
	})

	var modelLineRef *float64
	if res.MarketType == models.MarketSpread || res.MarketType == models.MarketTotal {
		modelLineRef = &modelLine
	}

	clsOut := classifier.Classify(cfg, classifier.Input{
		Sport: g.Sport, MarketType: res.MarketType,
		ProbabilityAdjusted: calOut.ProbabilityAdjusted, MarketImpliedProb: res.DevisedMarketProb,
		AmericanOdds:    marketOdds,
		PushProbability: res.PushProbability,
		CalibrationPublish: calOut.Publish, RCLPassed: !rclOut.BlockEdge,
		VarianceDowngraded: calOut.AppliedPenalties["variance_gate"] >= 0.75,
		Integrity: classifier.IntegrityFlags{
			StaleOdds:         staleOdds,
			MissingMarketLine: !haveMarket,
		},
		ModelLine: modelLineRef, MarketLine: marketLinePtr,
	})

	assembled, err := decision.Assemble(decision.AssembleInput{
		GameID: g.GameID, Sport: g.Sport, MarketType: res.MarketType,
		MarketSettlement: settlement,
		ContextHash: contextHash, BookKey: bookKey,
		PreferenceSelectionID: res.ModelPreferenceID,
		PreferenceSide:        preferredSide,
		PreferenceTeamID:      g.teamKeyFor(preferredSide),
		MarketLine:            marketLinePtr,
		MarketOdds:            marketOdds,
		Classification: clsOut.Classification, EdgePoints: clsOut.EdgePoints, EdgeEV: clsOut.EdgeEV,
		ModelProbabilityRaw: res.ModelProbability, ModelProbabilityAdjusted: calOut.ProbabilityAdjusted,
		CalibrationVersion: calibrationVersion, DecisionVersion: 1,
		Competitors: g.Competitors,
	}, time.Now())
	if err != nil {
		return fmt.Errorf("assemble decision: %w", err)
	}

	if _, err := g.Audit.Record(ctx, g.GameID, assembled.MarketDecision, time.Now()); err != nil {
		return fmt.Errorf("audit decision: %w", err)
	}

	recentTiers := g.recordTier(res.MarketType, assembled.Classification)

	sig, err := signalMgr.Advance(ctx, cfg, g.GameID, res.MarketType, assembled.MarketDecision, recentTiers, "", time.Now())
	if err != nil {
		return fmt.Errorf("advance signal: %w", err)
	}
	if sig == nil {
		return nil
	}

	switch sig.State {
	case models.SignalActiveEdge, models.SignalActiveMonitoring, models.SignalWeakened:
		pub, err := gate.Publish(ctx, publish.Request{
			Sig: *sig, Decision: assembled.MarketDecision, Channel: publish.ChannelWeb,
			Visibility: publish.VisibilityFree, MarketSnapshotID: contextHash,
			EngineVersion: audit.EngineVersion,
			MarketLine:    marketLinePtr,
			Price: assembled.MarketOdds, BookKey: bookKey,
		}, time.Now())
		if err != nil {
			return fmt.Errorf("publish signal: %w", err)
		}
		if g.Events != nil {
			if err := g.Events.PublishPrediction(ctx, pub); err != nil {
				log.Printf("[%s] publication event emit failed: %v", g.GameID, err)
			}
		}
	case models.SignalInvalidated:
		if err := gate.VoidOnInvalidation(ctx, *sig, []publish.Channel{publish.ChannelWeb, publish.ChannelInternal, publish.ChannelBroadcast}); err != nil {
			return fmt.Errorf("void publications: %w", err)
		}
	}

	return nil
}
