package repository

import (
	"context"

	"FinCast/internal/domain/models"
)

// MarketData fetches raw price history and descriptive metadata for a ticker.
type MarketData interface {
	FetchSeries(ctx context.Context, ticker, period, interval string) ([]models.PriceBar, error)
	FetchInfo(ctx context.Context, ticker string) (models.CompanyInfo, error)
}

// Roster is the immutable list of tracked companies.
type Roster interface {
	All() []models.Company
	ByID(id int) (models.Company, bool)
}

// HistoryRecorder persists published snapshots for later analysis.
type HistoryRecorder interface {
	Init(ctx context.Context) error
	RecordSnapshot(ctx context.Context, snap *models.Snapshot) error
	Close() error
}

// PredictionPublisher fans published snapshots out to downstream consumers.
type PredictionPublisher interface {
	PublishSnapshot(ctx context.Context, snap *models.Snapshot) error
	Close() error
}

type Metrics interface {
	RecordRefresh(status string, seconds float64, records int)
	RecordPredictionError(kind string)
	RecordPrediction(symbol string, current, predicted float64)
	RecordLatency(op string, seconds float64)
}
