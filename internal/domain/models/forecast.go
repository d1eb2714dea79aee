package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Trading signals derived from a prediction.
const (
	SignalBuy  = "Buy"
	SignalSell = "Sell"
	SignalHold = "Hold"
)

// Prediction is the predictor output for one symbol. Any field may be null
// when the series is too short to produce it.
type Prediction struct {
	LastDayPrice   null.Float
	CurrentPrice   null.Float
	PredictedPrice null.Float
}

// Available reports whether both current and predicted prices are present.
func (p Prediction) Available() bool {
	return p.CurrentPrice.Valid && p.PredictedPrice.Valid
}

// Signal compares the predicted price against the current one.
// It returns "" when the prediction is not available.
func (p Prediction) Signal() string {
	if !p.Available() {
		return ""
	}
	switch {
	case p.PredictedPrice.Float64 > p.CurrentPrice.Float64:
		return SignalBuy
	case p.PredictedPrice.Float64 < p.CurrentPrice.Float64:
		return SignalSell
	default:
		return SignalHold
	}
}

// PredictionRecord is one row of the published snapshot.
type PredictionRecord struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Symbol         string     `json:"symbol"`
	LastDayPrice   null.Float `json:"last_day_price"`
	CurrentPrice   null.Float `json:"current_price"`
	PredictedPrice null.Float `json:"predicted_price"`
	ComputedAt     time.Time  `json:"computed_at"`
}

// Prediction returns the price fields of the record.
func (r PredictionRecord) Prediction() Prediction {
	return Prediction{LastDayPrice: r.LastDayPrice, CurrentPrice: r.CurrentPrice, PredictedPrice: r.PredictedPrice}
}

// Snapshot is the complete result of one refresh cycle, in roster order.
// A published snapshot is never mutated.
type Snapshot struct {
	CycleID     string
	Records     []PredictionRecord
	PublishedAt time.Time
}

// Find returns the record for company id.
func (s *Snapshot) Find(id int) (PredictionRecord, bool) {
	if s == nil {
		return PredictionRecord{}, false
	}
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return PredictionRecord{}, false
}
