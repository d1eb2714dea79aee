package features

import (
	"fmt"
	"math"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
)

// Derive turns an ascending OHLCV series into feature rows. The first bar only
// seeds prev_close, so len(bars)-1 rows are returned.
//
// value_traded floors the mid price before multiplying by volume.
func Derive(bars []models.PriceBar) ([]models.FeatureRow, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("derive %d bars: %w", len(bars), errs.ErrInsufficientData)
	}
	out := make([]models.FeatureRow, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		cur := bars[i]
		change := cur.Close - prev
		out = append(out, models.FeatureRow{
			Date:         cur.Date,
			Close:        cur.Close,
			High:         cur.High,
			Low:          cur.Low,
			Change:       change,
			PctChange:    change / prev * 100,
			VolumeTraded: cur.Volume,
			ValueTraded:  math.Floor((cur.Close+cur.Open)/2) * cur.Volume,
		})
	}
	return out, nil
}

// Validate checks that every column of every row holds a finite number.
func Validate(rows []models.FeatureRow) error {
	for i, r := range rows {
		v := r.Vector()
		for c, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("row %d (%s) column %s is %v: %w",
					i, r.Date.Format("2006-01-02"), models.FeatureColumns[c], x, errs.ErrSchema)
			}
		}
	}
	return nil
}
