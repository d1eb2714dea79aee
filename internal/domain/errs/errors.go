package errs

import "errors"

// Error kinds surfaced by the forecast pipeline. Callers wrap them with %w
// and match with errors.Is.
var (
	ErrInsufficientData   = errors.New("insufficient data")
	ErrInsufficientWindow = errors.New("insufficient window")
	ErrSchema             = errors.New("schema error")
	ErrInference          = errors.New("inference error")
	ErrDataProvider       = errors.New("data provider error")
	ErrNotFound           = errors.New("not found")
)

// Kind returns a low-cardinality label for err, used for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrInsufficientWindow):
		return "insufficient_window"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrInference):
		return "inference"
	case errors.Is(err, ErrDataProvider):
		return "data_provider"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}
