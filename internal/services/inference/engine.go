package inference

import (
	"context"
	"fmt"
	"math"
	"net/url"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"

	"github.com/tidwall/gjson"
)

// ModelServerEngine runs the frozen sequence model behind a TensorFlow
// Serving compatible REST endpoint (/v1/models/{name}:predict).
type ModelServerEngine struct {
	base     *HTTPServiceBase
	model    string
	window   int
	attempts int
}

// Config describes the served model.
type Config struct {
	BaseURL  string
	Model    string
	Window   int
	Attempts int
}

func NewModelServerEngine(base *HTTPServiceBase, cfg Config) *ModelServerEngine {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &ModelServerEngine{base: base, model: cfg.Model, window: cfg.Window, attempts: cfg.Attempts}
}

func (e *ModelServerEngine) modelPath() string {
	return "/v1/models/" + url.PathEscape(e.model)
}

type predictReq struct {
	Instances [][][models.NumFeatures]float64 `json:"instances"`
}

// Infer sends one (1, N, 7) window and returns the scaled close prediction.
func (e *ModelServerEngine) Infer(ctx context.Context, window [][models.NumFeatures]float64) (float64, error) {
	if len(window) != e.window {
		return 0, fmt.Errorf("%w: window has %d rows, model expects %d", errs.ErrInference, len(window), e.window)
	}
	var body []byte
	err := e.base.PostJSONWithRetry(ctx, e.modelPath()+":predict",
		predictReq{Instances: [][][models.NumFeatures]float64{window}}, &body, e.attempts)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrInference, err)
	}
	return parsePrediction(body)
}

// parsePrediction accepts both [[v]] and [v] output shapes.
func parsePrediction(body []byte) (float64, error) {
	p := gjson.GetBytes(body, "predictions.0")
	if p.IsArray() {
		p = p.Get("0")
	}
	if p.Type != gjson.Number {
		if msg := gjson.GetBytes(body, "error").String(); msg != "" {
			return 0, fmt.Errorf("%w: model server: %s", errs.ErrInference, msg)
		}
		return 0, fmt.Errorf("%w: no numeric prediction in response", errs.ErrInference)
	}
	v := p.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction", errs.ErrInference)
	}
	return v, nil
}

// Ready checks that the model server reports at least one AVAILABLE version.
// Startup treats a failure here as fatal.
func (e *ModelServerEngine) Ready(ctx context.Context) error {
	var body []byte
	if err := e.base.GetJSON(ctx, e.modelPath(), &body); err != nil {
		return fmt.Errorf("model %q status: %w", e.model, err)
	}
	for _, v := range gjson.GetBytes(body, "model_version_status").Array() {
		if v.Get("state").String() == "AVAILABLE" {
			return nil
		}
	}
	return fmt.Errorf("model %q has no AVAILABLE version", e.model)
}

var _ domsvc.InferenceEngine = (*ModelServerEngine)(nil)
