package service

import (
	"context"

	"FinCast/internal/domain/models"
)

// InferenceEngine runs the frozen sequence model on one normalized window.
// window has N rows of models.NumFeatures scaled values; the result is the
// scaled close for the next day.
type InferenceEngine interface {
	Infer(ctx context.Context, window [][models.NumFeatures]float64) (float64, error)
}
