// Command grading-worker consumes finalized EventResults off Redis Streams,
// settles every official PublishedPrediction for each game, and runs the
// weekly calibration refit job.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/xavierbriggs/decision-core/internal/audit"
	"github.com/xavierbriggs/decision-core/internal/bus"
	"github.com/xavierbriggs/decision-core/internal/calibration"
	"github.com/xavierbriggs/decision-core/internal/config"
	"github.com/xavierbriggs/decision-core/internal/grading"
	"github.com/xavierbriggs/decision-core/internal/store"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// retrainInterval is the cadence of the per-segment calibration refit job.
const retrainInterval = 7 * 24 * time.Hour

func main() {
	log.Println("starting grading-worker")

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
	log.Println("connected to postgres")

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

	publishes := store.NewPublishStore(db)
	snapshots := store.NewSnapshotStore(db)
	calibrations := store.NewCalibrationStore(db)
	auditLogger := audit.NewLogger(store.NewAuditStore(db))
	grader := grading.NewGrader(store.NewGradingStore(db))
	consumer := bus.NewConsumer(redisClient, "grading-worker-1", "grading-worker")
	messages, errs := consumer.ConsumeEventResults(ctx, "events.finalized")

	go retrainLoop(ctx, cfg.Orchestrator.Sports, calibrations, auditLogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			log.Println("received shutdown signal")
			cancel()
			log.Println("grading-worker stopped")
			return

		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("stream error: %v", err)

		case msg, ok := <-messages:
			if !ok {
				return
			}
			settleGame(ctx, publishes, snapshots, grader, msg)
			if err := consumer.Ack(ctx, "events.finalized", msg.ID); err != nil {
				log.Printf("[%s] ack failed: %v", msg.Result.GameID, err)
			}
		}
	}
}

// settleGame settles every official PublishedPrediction released for one
// game against its finalized result; a failure on one prediction does not
// block settling the rest. The last OddsSnapshot recorded for the game is
// the closing market used for CLV.
func settleGame(ctx context.Context, publishes *store.PublishStore, snapshots *store.SnapshotStore, grader *grading.Grader, msg bus.EventResultMessage) {
	predictions, err := publishes.ListForGame(ctx, msg.Result.GameID)
	if err != nil {
		log.Printf("[%s] list published predictions failed: %v", msg.Result.GameID, err)
		return
	}

	closingSnap, err := snapshots.ClosingOddsSnapshot(ctx, msg.Result.GameID)
	if err != nil {
		log.Printf("[%s] closing snapshot lookup failed, grading without CLV: %v", msg.Result.GameID, err)
	}

	now := time.Now()
	for _, pub := range predictions {
		if !pub.IsOfficial {
			continue
		}
		closing := grading.ClosingQuoteFor(pub, closingSnap)
		// PublishedPrediction does not carry its sport; gradeOutcome only
		// consults it for a tie-rule comment on 2-way moneylines, so an
		// empty value is harmless here.
		if _, err := grader.Settle(ctx, pub, "", msg.Result, closing, now); err != nil {
			log.Printf("[%s] settle prediction %s failed: %v", msg.Result.GameID, pub.PredictionID, err)
		}
	}
}

// retrainLoop refits per-segment calibration on a weekly cadence, stages the
// new version, and performs the explicit pointer swap, recording each
// promotion in the audit log. Segments without enough graded samples are
// skipped and the previous version stays active.
func retrainLoop(ctx context.Context, sports []string, calibrations *store.CalibrationStore, auditLogger *audit.Logger) {
	ticker := time.NewTicker(retrainInterval)
	defer ticker.Stop()

	marketTypes := []models.MarketType{models.MarketSpread, models.MarketTotal, models.MarketMoneylineTwo}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			version := "cal-" + now.UTC().Format("20060102")
			for _, sportKey := range sports {
				sport := models.Sport(sportKey)
				for _, marketType := range marketTypes {
					retrainSegment(ctx, calibrations, auditLogger, sport, marketType, version, now)
				}
			}
		}
	}
}

func retrainSegment(ctx context.Context, calibrations *store.CalibrationStore, auditLogger *audit.Logger, sport models.Sport, marketType models.MarketType, version string, now time.Time) {
	raw, err := calibrations.TrainingSamples(ctx, sport, marketType)
	if err != nil {
		log.Printf("[retrain %s/%s] load samples failed: %v", sport, marketType, err)
		return
	}

	samples := make([]calibration.Sample, 0, len(raw))
	for _, s := range raw {
		switch s.Outcome {
		case models.GradingWin:
			samples = append(samples, calibration.Sample{Predicted: s.Predicted, Won: true})
		case models.GradingLoss:
			samples = append(samples, calibration.Sample{Predicted: s.Predicted, Won: false})
		}
		// Pushes and voids carry no win/loss information and are excluded.
	}

	const bucket = "default"
	seg, err := calibration.Train(sport, marketType, bucket, calibration.MethodIsotonic, version, samples, now)
	if err != nil {
		log.Printf("[retrain %s/%s] skipped: %v", sport, marketType, err)
		return
	}
	if err := calibrations.PutVersion(ctx, seg); err != nil {
		log.Printf("[retrain %s/%s] stage version failed: %v", sport, marketType, err)
		return
	}
	if err := calibrations.Promote(ctx, sport, marketType, bucket, version); err != nil {
		log.Printf("[retrain %s/%s] promote failed: %v", sport, marketType, err)
		return
	}
	if err := auditLogger.RecordCalibrationPromotion(ctx, sport, marketType, version, now); err != nil {
		log.Printf("[retrain %s/%s] audit promotion failed: %v", sport, marketType, err)
		return
	}
	log.Printf("[retrain %s/%s] promoted %s on %d samples", sport, marketType, version, seg.SampleCount)
}
