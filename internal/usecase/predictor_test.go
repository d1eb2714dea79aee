package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
	"FinCast/internal/services/features"
)

func newTestPredictor(m *fakeMarket, e fakeEngine) *Predictor {
	return NewPredictor(m, e, features.NewNormalizer(60, nil), &fakeMetrics{}, PredictorConfig{
		Period:       "6mo",
		Interval:     "1d",
		Suffix:       ".SR",
		FetchTimeout: time.Second,
	})
}

func TestPredictRisingSeries(t *testing.T) {
	p := newTestPredictor(&fakeMarket{bars: 70}, fakeEngine{out: 0.5})

	pred, err := p.Predict(context.Background(), "2222")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !pred.CurrentPrice.Valid || pred.CurrentPrice.Float64 != 169 {
		t.Fatalf("current = %v, want 169", pred.CurrentPrice)
	}
	if !pred.LastDayPrice.Valid || pred.LastDayPrice.Float64 != 168 {
		t.Fatalf("last day = %v, want 168", pred.LastDayPrice)
	}
	if !pred.PredictedPrice.Valid || math.IsNaN(pred.PredictedPrice.Float64) || math.IsInf(pred.PredictedPrice.Float64, 0) {
		t.Fatalf("predicted = %v, want finite", pred.PredictedPrice)
	}
	// last 60 feature closes span 110..169, so 0.5 maps to the midpoint
	if pred.PredictedPrice.Float64 != 139.5 {
		t.Fatalf("predicted = %v, want 139.5", pred.PredictedPrice.Float64)
	}
	if s := pred.Signal(); s != models.SignalSell {
		t.Fatalf("signal = %q, want Sell", s)
	}
}

func TestPredictShortSeriesIsNull(t *testing.T) {
	for _, bars := range []int{0, 1, 30, 60} {
		p := newTestPredictor(&fakeMarket{bars: bars}, fakeEngine{out: 0.5})
		pred, err := p.Predict(context.Background(), "1010")
		if err != nil {
			t.Fatalf("bars=%d: unexpected error %v", bars, err)
		}
		if pred.CurrentPrice.Valid || pred.LastDayPrice.Valid || pred.PredictedPrice.Valid {
			t.Fatalf("bars=%d: expected all-null prediction, got %+v", bars, pred)
		}
	}
}

func TestPredictErrorKinds(t *testing.T) {
	p := newTestPredictor(&fakeMarket{bars: 70, fail: map[string]bool{"9999.SR": true}}, fakeEngine{out: 0.5})
	if _, err := p.Predict(context.Background(), "9999"); !errors.Is(err, errs.ErrDataProvider) {
		t.Fatalf("expected data provider error, got %v", err)
	}

	p = newTestPredictor(&fakeMarket{bars: 70}, fakeEngine{err: errors.New("connection refused")})
	if _, err := p.Predict(context.Background(), "2222"); !errors.Is(err, errs.ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
}

func TestTickerSuffix(t *testing.T) {
	p := newTestPredictor(&fakeMarket{}, fakeEngine{})
	if got := p.Ticker("2222"); got != "2222.SR" {
		t.Fatalf("Ticker = %q", got)
	}
}

func TestPredictFetchTimeout(t *testing.T) {
	market := &fakeMarket{bars: 70, hang: map[string]bool{"2222.SR": true}}
	p := NewPredictor(market, fakeEngine{out: 0.5}, features.NewNormalizer(60, nil), &fakeMetrics{}, PredictorConfig{
		Suffix:       ".SR",
		FetchTimeout: 50 * time.Millisecond,
	})

	start := time.Now()
	_, err := p.Predict(context.Background(), "2222")
	elapsed := time.Since(start)
	if !errors.Is(err, errs.ErrDataProvider) {
		t.Fatalf("expected data provider error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("fetch took %v, timeout not applied", elapsed)
	}
}
