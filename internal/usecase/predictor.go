package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/services/features"

	"github.com/guregu/null/v6"
)

// PredictorConfig holds the market lookback and ticker settings.
type PredictorConfig struct {
	Period       string
	Interval     string
	Suffix       string
	FetchTimeout time.Duration
}

// Predictor runs fetch, derive, normalize, infer and inverse-scale for one symbol.
type Predictor struct {
	market  domrepo.MarketData
	engine  domsvc.InferenceEngine
	norm    *features.Normalizer
	metrics domrepo.Metrics
	cfg     PredictorConfig
}

func NewPredictor(market domrepo.MarketData, engine domsvc.InferenceEngine, norm *features.Normalizer, metrics domrepo.Metrics, cfg PredictorConfig) *Predictor {
	if cfg.Period == "" {
		cfg.Period = "6mo"
	}
	cfg.Interval = string(domrepo.NormalizeInterval(cfg.Interval))
	return &Predictor{market: market, engine: engine, norm: norm, metrics: metrics, cfg: cfg}
}

// Ticker maps a roster symbol to the provider ticker.
func (p *Predictor) Ticker(symbol string) string {
	return symbol + p.cfg.Suffix
}

// Features fetches the lookback series for symbol and derives validated
// feature rows. A series too short to derive anything yields no rows and no error.
func (p *Predictor) Features(ctx context.Context, symbol string) ([]models.FeatureRow, error) {
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	bars, err := p.market.FetchSeries(ctx, p.Ticker(symbol), p.cfg.Period, p.cfg.Interval)
	p.metrics.RecordLatency("fetch_series", time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, errs.ErrDataProvider) {
			err = fmt.Errorf("%w: %w", errs.ErrDataProvider, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	rows, err := features.Derive(bars)
	if errors.Is(err, errs.ErrInsufficientData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := features.Validate(rows); err != nil {
		return nil, fmt.Errorf("features %s: %w", symbol, err)
	}
	return rows, nil
}

// PredictRows runs the model on already derived rows. Fewer rows than the
// window gives an all-null prediction and no error.
func (p *Predictor) PredictRows(ctx context.Context, rows []models.FeatureRow) (models.Prediction, error) {
	var pred models.Prediction
	if len(rows) < p.norm.Size() {
		return pred, nil
	}
	window, err := p.norm.Normalize(rows)
	if err != nil {
		return pred, err
	}

	start := time.Now()
	scaled, err := p.engine.Infer(ctx, window.Values)
	p.metrics.RecordLatency("infer", time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, errs.ErrInference) {
			err = fmt.Errorf("%w: %w", errs.ErrInference, err)
		}
		return pred, err
	}

	pred.CurrentPrice = null.FloatFrom(rows[len(rows)-1].Close)
	pred.LastDayPrice = null.FloatFrom(rows[len(rows)-2].Close)
	pred.PredictedPrice = null.FloatFrom(window.Scaler.Inverse(models.ColClose, scaled))
	return pred, nil
}

// Predict fetches and predicts symbol end to end.
func (p *Predictor) Predict(ctx context.Context, symbol string) (models.Prediction, error) {
	rows, err := p.Features(ctx, symbol)
	if err != nil {
		return models.Prediction{}, err
	}
	return p.PredictRows(ctx, rows)
}
