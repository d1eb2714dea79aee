package features

import (
	"fmt"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
)

// ColumnRange is the (min, max) pair used to scale one column.
type ColumnRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Scaler maps each feature column to [0, 1] with a min-max transform.
type Scaler struct {
	Ranges [models.NumFeatures]ColumnRange
}

// FitScaler computes per-column min and max over rows.
func FitScaler(rows []models.FeatureRow) Scaler {
	var s Scaler
	for i, r := range rows {
		v := r.Vector()
		for c := range v {
			if i == 0 {
				s.Ranges[c] = ColumnRange{Min: v[c], Max: v[c]}
				continue
			}
			if v[c] < s.Ranges[c].Min {
				s.Ranges[c].Min = v[c]
			}
			if v[c] > s.Ranges[c].Max {
				s.Ranges[c].Max = v[c]
			}
		}
	}
	return s
}

// Scale maps v of column col into the scaler's range. A constant column maps to 0.
func (s Scaler) Scale(col int, v float64) float64 {
	r := s.Ranges[col]
	span := r.Max - r.Min
	if span == 0 {
		return 0
	}
	return (v - r.Min) / span
}

// Inverse maps a scaled value of column col back to original units.
func (s Scaler) Inverse(col int, v float64) float64 {
	r := s.Ranges[col]
	return v*(r.Max-r.Min) + r.Min
}

// Transform scales every row into a model input window. Values outside the
// scaler's range, possible with training-time ranges, are clamped to [0, 1].
func (s Scaler) Transform(rows []models.FeatureRow) [][models.NumFeatures]float64 {
	out := make([][models.NumFeatures]float64, len(rows))
	for i, r := range rows {
		v := r.Vector()
		for c := range v {
			out[i][c] = min(max(s.Scale(c, v[c]), 0), 1)
		}
	}
	return out
}

// Window is a normalized model input together with the scaler that produced it.
type Window struct {
	Values [][models.NumFeatures]float64
	Scaler Scaler
}

// Normalizer selects the trailing window and scales it.
type Normalizer struct {
	size  int
	fixed *Scaler
}

// NewNormalizer builds a normalizer for windows of size rows. When fixed is
// non-nil its ranges are used for every window instead of refitting.
func NewNormalizer(size int, fixed *Scaler) *Normalizer {
	return &Normalizer{size: size, fixed: fixed}
}

// Size returns the window length.
func (n *Normalizer) Size() int { return n.size }

// Normalize scales the last Size rows.
func (n *Normalizer) Normalize(rows []models.FeatureRow) (Window, error) {
	if len(rows) < n.size {
		return Window{}, fmt.Errorf("have %d rows, need %d: %w", len(rows), n.size, errs.ErrInsufficientWindow)
	}
	tail := rows[len(rows)-n.size:]
	var s Scaler
	if n.fixed != nil {
		s = *n.fixed
	} else {
		s = FitScaler(tail)
	}
	return Window{Values: s.Transform(tail), Scaler: s}, nil
}
