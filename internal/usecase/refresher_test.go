package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinCast/internal/service/snapshot"
	"FinCast/internal/services/features"
	applogger "FinCast/pkg/logger"
)

func TestRefreshDegradesFailingSymbol(t *testing.T) {
	market := &fakeMarket{bars: 70, fail: map[string]bool{"3333.SR": true}}
	metrics := &fakeMetrics{}
	store := snapshot.New()
	history := &recordingHistory{}
	r := NewRefresher(roster("1111", "2222", "3333", "4444", "5555"), newTestPredictor(market, fakeEngine{out: 0.75}),
		store, RefresherDeps{History: history}, metrics, applogger.Nop(), 2)

	snap, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(snap.Records) != 5 {
		t.Fatalf("got %d records, want 5", len(snap.Records))
	}
	nulls := 0
	for i, rec := range snap.Records {
		if rec.ID != i+1 {
			t.Fatalf("record %d has id %d, roster order lost", i, rec.ID)
		}
		if !rec.PredictedPrice.Valid {
			nulls++
			if rec.Symbol != "3333" {
				t.Fatalf("unexpected null record for %s", rec.Symbol)
			}
			if rec.CurrentPrice.Valid || rec.LastDayPrice.Valid {
				t.Fatalf("failed record should be all null: %+v", rec)
			}
		}
	}
	if nulls != 1 {
		t.Fatalf("got %d null records, want 1", nulls)
	}
	if store.Load() != snap {
		t.Fatalf("store does not hold the published snapshot")
	}
	if len(history.snaps) != 1 || history.snaps[0] != snap {
		t.Fatalf("history not recorded")
	}
	if len(metrics.errKinds) != 1 || metrics.errKinds[0] != "data_provider" {
		t.Fatalf("error kinds = %v", metrics.errKinds)
	}
	if metrics.predicted != 4 {
		t.Fatalf("predictions recorded = %d, want 4", metrics.predicted)
	}
	if len(metrics.refreshes) != 1 || metrics.refreshes[0] != "ok" {
		t.Fatalf("refresh statuses = %v", metrics.refreshes)
	}
}

func TestRefreshRoundsPrices(t *testing.T) {
	// 0.333 over closes 110..169 gives 129.647
	r := NewRefresher(roster("1111"), newTestPredictor(&fakeMarket{bars: 70}, fakeEngine{out: 0.333}),
		snapshot.New(), RefresherDeps{}, &fakeMetrics{}, applogger.Nop(), 1)
	snap, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := snap.Records[0].PredictedPrice.Float64; got != 129.65 {
		t.Fatalf("predicted = %v, want 129.65", got)
	}
}

func TestRefreshCancelledKeepsPreviousSnapshot(t *testing.T) {
	store := snapshot.New()
	metrics := &fakeMetrics{}
	r := NewRefresher(roster("1111", "2222"), newTestPredictor(&fakeMarket{bars: 70}, fakeEngine{out: 0.5}),
		store, RefresherDeps{}, metrics, applogger.Nop(), 1)

	first, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.Load() != first {
		t.Fatalf("cancelled cycle replaced the snapshot")
	}
	if metrics.refreshes[len(metrics.refreshes)-1] != "cancelled" {
		t.Fatalf("refresh statuses = %v", metrics.refreshes)
	}
}

func TestRefreshSlowSymbolTimesOut(t *testing.T) {
	market := &fakeMarket{bars: 70, hang: map[string]bool{"2222.SR": true}}
	metrics := &fakeMetrics{}
	p := NewPredictor(market, fakeEngine{out: 0.75}, features.NewNormalizer(60, nil), metrics, PredictorConfig{
		Suffix:       ".SR",
		FetchTimeout: 50 * time.Millisecond,
	})
	store := snapshot.New()
	r := NewRefresher(roster("1111", "2222", "3333"), p, store, RefresherDeps{}, metrics, applogger.Nop(), 1)

	snap, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(snap.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(snap.Records))
	}
	for _, rec := range snap.Records {
		if rec.Symbol == "2222" {
			if rec.CurrentPrice.Valid || rec.PredictedPrice.Valid {
				t.Fatalf("slow symbol should be null: %+v", rec)
			}
			continue
		}
		if !rec.PredictedPrice.Valid {
			t.Fatalf("symbol %s missing prediction", rec.Symbol)
		}
	}
	if store.Load() != snap {
		t.Fatalf("snapshot not published")
	}
	if len(metrics.errKinds) != 1 || metrics.errKinds[0] != "data_provider" {
		t.Fatalf("error kinds = %v", metrics.errKinds)
	}
}
