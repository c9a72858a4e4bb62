// Command decision-engine is the long-running process that ingests
// simulation results off Redis Streams and drives them through calibration,
// classification, assembly, auditing, signal lifecycle, and publishing.
// One stream is consumed per configured sport.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/xavierbriggs/decision-core/internal/audit"
	"github.com/xavierbriggs/decision-core/internal/bus"
	"github.com/xavierbriggs/decision-core/internal/config"
	"github.com/xavierbriggs/decision-core/internal/decision"
	"github.com/xavierbriggs/decision-core/internal/orchestrator"
	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/internal/store"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

func main() {
	log.Println("starting decision-engine")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}
	if err := store.ApplySchema(ctx, db); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	log.Println("connected to postgres, schema applied")

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		redisOpts = &redis.Options{Addr: cfg.Redis.URL, Password: cfg.Redis.Password}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}
	log.Println("connected to redis")

	registry := sportconfig.NewRegistry()
	overrides, err := sportconfig.LoadOverrides(cfg.Orchestrator.OverridesPath)
	if err != nil {
		log.Fatalf("load calibration overrides: %v", err)
	}
	if err := overrides.Apply(registry); err != nil {
		log.Fatalf("apply calibration overrides: %v", err)
	}

	deps := pipelineDeps{
		events:       bus.NewPublisher(redisClient),
		snapshots:    store.NewSnapshotStore(db),
		simResults:   store.NewSimResultStore(db),
		signals:      store.NewSignalStore(db),
		publishes:    store.NewPublishStore(db),
		calibrations: store.NewCalibrationStore(db),
		auditLogger:  audit.NewLogger(store.NewAuditStore(db)),
		oddsLimiter: rate.NewLimiter(rate.Limit(cfg.Orchestrator.OddsRateLimitPerSec), 1),
		simLimiter:  rate.NewLimiter(rate.Limit(cfg.Orchestrator.SimRateLimitPerSec), 1),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	for _, sportKey := range cfg.Orchestrator.Sports {
		sport := models.Sport(strings.ToUpper(sportKey))
		if _, err := registry.ConfigFor(sport); err != nil {
			log.Printf("skipping unknown sport %q: %v", sportKey, err)
			continue
		}
		wg.Add(1)
		go func(sport models.Sport) {
			defer wg.Done()
			consumeSport(ctx, redisClient, sport, registry, deps)
		}(sport)
		log.Printf("watching sport %s", sport)
	}

	<-sigChan
	log.Println("received shutdown signal")
	cancel()
	wg.Wait()
	log.Println("decision-engine stopped")
}

// pipelineDeps bundles the shared storage/throttling handles every
// per-sport consumer goroutine and its lazily-built GameSchedulers need.
type pipelineDeps struct {
	events       *bus.Publisher
	snapshots    *store.SnapshotStore
	simResults   *store.SimResultStore
	signals      *store.SignalStore
	publishes    *store.PublishStore
	calibrations *store.CalibrationStore
	auditLogger  *audit.Logger
	oddsLimiter  *rate.Limiter
	simLimiter   *rate.Limiter
}

// consumeSport runs one Redis Streams consumer for sport's simulation
// results until ctx is cancelled, lazily building one GameScheduler per
// game_id the first time a result for that game arrives. The pipeline runs
// on a single worker behind a bounded queue sized by the sport's backlog
// ceiling; when the queue is full the tick event is dropped, recorded as an
// audit row whose release_status is DROPPED_BY_BACKPRESSURE (no reason code
// is stored), and the next tick re-queues.
func consumeSport(ctx context.Context, redisClient *redis.Client, sport models.Sport, registry *sportconfig.Registry, deps pipelineDeps) {
	streamKey := fmt.Sprintf("simulation.results.%s", strings.ToLower(string(sport)))
	consumer := bus.NewConsumer(redisClient, "decision-engine-1", "decision-engine")
	messages, errs := consumer.ConsumeSimResults(ctx, streamKey)

	cfg, err := registry.ConfigFor(sport)
	if err != nil {
		log.Printf("[%s] no config, consumer not started: %v", sport, err)
		return
	}
	backlog := cfg.BacklogCeiling
	if backlog <= 0 {
		backlog = 64
	}
	work := make(chan bus.SimResultMessage, backlog)

	schedulers := map[string]*orchestrator.GameScheduler{}

	var workerWG sync.WaitGroup
	workerWG.Add(1)
	go func() {
		defer workerWG.Done()
		for msg := range work {
			sched := schedulerFor(schedulers, sport, msg.Result, registry, deps)
			if err := sched.HandleSimResult(ctx, msg.Result, msg.Result.ContextHash); err != nil {
				log.Printf("[%s/%s] handle sim result failed: %v", sport, msg.Result.GameID, err)
				continue
			}
			if err := consumer.Ack(ctx, streamKey, msg.ID); err != nil {
				log.Printf("[%s/%s] ack failed: %v", sport, msg.Result.GameID, err)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			close(work)
			workerWG.Wait()
			return
		case err, ok := <-errs:
			if !ok {
				close(work)
				workerWG.Wait()
				return
			}
			log.Printf("[%s] stream error: %v", sport, err)
		case msg, ok := <-messages:
			if !ok {
				close(work)
				workerWG.Wait()
				return
			}
			select {
			case work <- msg:
			default:
				log.Printf("[%s/%s] backlog over ceiling %d, dropping tick", sport, msg.Result.GameID, backlog)
				if err := deps.auditLogger.RecordBackpressureDrop(ctx, msg.Result.GameID, sport, msg.Result.MarketType, time.Now()); err != nil {
					log.Printf("[%s/%s] audit backpressure drop failed: %v", sport, msg.Result.GameID, err)
				}
				// Not acked: the stream redelivers, so the work is
				// re-queued on a later tick rather than lost.
			}
		}
	}
}

func schedulerFor(schedulers map[string]*orchestrator.GameScheduler, sport models.Sport, res models.SimulationResult, registry *sportconfig.Registry, deps pipelineDeps) *orchestrator.GameScheduler {
	if sched, ok := schedulers[res.GameID]; ok {
		return sched
	}
	sched := &orchestrator.GameScheduler{
		GameID:       res.GameID,
		Sport:        sport,
		HomeTeamKey:  res.HomeTeamKey,
		AwayTeamKey:  res.AwayTeamKey,
		Registry:     registry,
		Snapshots:    deps.snapshots,
		SimResults:   deps.simResults,
		SignalStore:  deps.signals,
		PublishStore: deps.publishes,
		Calibrations: deps.calibrations,
		Audit:        deps.auditLogger,
		Events:       deps.events,
		Competitors:  decision.Competitors{res.HomeTeamKey: res.HomeTeamKey, res.AwayTeamKey: res.AwayTeamKey},
		BookKey:      "consensus",
		OddsLimiter:  deps.oddsLimiter,
		SimLimiter:   deps.simLimiter,
	}
	schedulers[res.GameID] = sched
	return sched
}
