package errs

import (
	"context"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{fmt.Errorf("derive: %w", ErrInsufficientData), "insufficient_data"},
		{fmt.Errorf("normalize: %w", ErrInsufficientWindow), "insufficient_window"},
		{fmt.Errorf("column close: %w", ErrSchema), "schema"},
		{fmt.Errorf("predict: %w", ErrInference), "inference"},
		{fmt.Errorf("%w: %w", ErrDataProvider, context.DeadlineExceeded), "data_provider"},
		{ErrNotFound, "not_found"},
		{fmt.Errorf("boom"), "unknown"},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.want {
			t.Fatalf("Kind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
