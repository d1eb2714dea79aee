package models

import "time"

// NumFeatures is the width of a feature vector.
const NumFeatures = 7

// Feature column indexes. The order is fixed and matches the model input.
const (
	ColClose = iota
	ColHigh
	ColLow
	ColChange
	ColPctChange
	ColVolumeTraded
	ColValueTraded
)

// FeatureColumns names each column in model order.
var FeatureColumns = [NumFeatures]string{
	"close", "high", "low", "change", "pct_change", "volume_traded", "value_traded",
}

// FeatureRow is the per-day feature vector derived from two consecutive bars.
type FeatureRow struct {
	Date         time.Time
	Close        float64
	High         float64
	Low          float64
	Change       float64
	PctChange    float64
	VolumeTraded float64
	ValueTraded  float64
}

// Vector returns the row in model column order.
func (r FeatureRow) Vector() [NumFeatures]float64 {
	return [NumFeatures]float64{
		r.Close, r.High, r.Low, r.Change, r.PctChange, r.VolumeTraded, r.ValueTraded,
	}
}
