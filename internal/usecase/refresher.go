package usecase

import (
	"context"
	"sync"
	"time"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/internal/service/snapshot"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/util"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
)

// SymbolPredictor produces a prediction for one roster symbol.
type SymbolPredictor interface {
	Predict(ctx context.Context, symbol string) (models.Prediction, error)
}

// Refresher recomputes the whole roster into a private buffer and publishes
// it to the store in one swap. A failing symbol becomes a record with null
// prices; it never aborts the cycle.
type Refresher struct {
	roster    domrepo.Roster
	predictor SymbolPredictor
	store     *snapshot.Store
	history   domrepo.HistoryRecorder
	publisher domrepo.PredictionPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
	workers   int
	now       func() time.Time
}

// RefresherDeps groups the optional sinks a published snapshot is exported to.
// Nil sinks are skipped.
type RefresherDeps struct {
	History   domrepo.HistoryRecorder
	Publisher domrepo.PredictionPublisher
}

func NewRefresher(roster domrepo.Roster, predictor SymbolPredictor, store *snapshot.Store, sinks RefresherDeps, metrics domrepo.Metrics, l *applogger.Logger, workers int) *Refresher {
	if workers < 1 {
		workers = 1
	}
	return &Refresher{
		roster:    roster,
		predictor: predictor,
		store:     store,
		history:   sinks.History,
		publisher: sinks.Publisher,
		metrics:   metrics,
		log:       l,
		workers:   workers,
		now:       time.Now,
	}
}

// Refresh runs one cycle. When ctx is cancelled mid-cycle the partial buffer
// is discarded and the previous snapshot stays published.
func (r *Refresher) Refresh(ctx context.Context) (*models.Snapshot, error) {
	start := r.now()
	companies := r.roster.All()
	records := make([]models.PredictionRecord, len(companies))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = r.predictOne(ctx, companies[i])
			}
		}()
	}
	for i := range companies {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		r.metrics.RecordRefresh("cancelled", time.Since(start).Seconds(), 0)
		r.log.Warn("refresh cycle cancelled, keeping previous snapshot", applogger.Error(err))
		return nil, err
	}

	snap := &models.Snapshot{
		CycleID:     uuid.NewString(),
		Records:     records,
		PublishedAt: r.now(),
	}
	r.store.Publish(snap)

	elapsed := time.Since(start)
	failed := 0
	for _, rec := range records {
		if !rec.PredictedPrice.Valid {
			failed++
		}
	}
	r.metrics.RecordRefresh("ok", elapsed.Seconds(), len(records))
	r.log.Info("snapshot published",
		applogger.String("cycle_id", snap.CycleID),
		applogger.Int("records", len(records)),
		applogger.Int("without_prediction", failed),
		applogger.Duration("duration_ms", elapsed),
	)

	r.export(ctx, snap)
	return snap, nil
}

func (r *Refresher) predictOne(ctx context.Context, c models.Company) models.PredictionRecord {
	rec := models.PredictionRecord{ID: c.ID, Name: c.Name, Symbol: c.Symbol}
	pred, err := r.predictor.Predict(ctx, c.Symbol)
	rec.ComputedAt = r.now()
	if err != nil {
		r.metrics.RecordPredictionError(errs.Kind(err))
		r.log.Warn("symbol prediction failed",
			applogger.String("symbol", c.Symbol),
			applogger.String("kind", errs.Kind(err)),
			applogger.Error(err),
		)
		return rec
	}
	rec.LastDayPrice = pred.LastDayPrice
	rec.CurrentPrice = round2(pred.CurrentPrice)
	rec.PredictedPrice = round2(pred.PredictedPrice)
	if pred.Available() {
		r.metrics.RecordPrediction(c.Symbol, pred.CurrentPrice.Float64, pred.PredictedPrice.Float64)
	}
	return rec
}

// export hands the snapshot to history and downstream consumers. Failures are
// logged only; the in-memory snapshot is already live.
func (r *Refresher) export(ctx context.Context, snap *models.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if r.history != nil {
		start := time.Now()
		if err := r.history.RecordSnapshot(ctx, snap); err != nil {
			r.log.Error("record snapshot history", applogger.String("cycle_id", snap.CycleID), applogger.Error(err))
		}
		r.metrics.RecordLatency("history_write", time.Since(start).Seconds())
	}
	if r.publisher != nil {
		start := time.Now()
		if err := r.publisher.PublishSnapshot(ctx, snap); err != nil {
			r.log.Error("publish snapshot", applogger.String("cycle_id", snap.CycleID), applogger.Error(err))
		}
		r.metrics.RecordLatency("publish", time.Since(start).Seconds())
	}
}

func round2(f null.Float) null.Float {
	if !f.Valid {
		return f
	}
	return null.FloatFrom(util.Round2(f.Float64))
}
