package usecase

import (
	"context"
	"testing"
	"time"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

type countingTrigger struct {
	reasons []string
	busy    bool
}

func (c *countingTrigger) TriggerNow(reason string) bool {
	c.reasons = append(c.reasons, reason)
	return !c.busy
}

func TestRefreshTriggerHandler(t *testing.T) {
	trig := &countingTrigger{}
	h := NewRefreshTriggerHandler("fincast.refresh", trig, applogger.Nop())
	if h.Topic() != "fincast.refresh" {
		t.Fatalf("topic = %q", h.Topic())
	}

	cases := []struct {
		payload string
		want    string
	}{
		{`{"reason":"earnings"}`, "earnings"},
		{``, "kafka"},
		{`{}`, "kafka"},
	}
	for _, tc := range cases {
		if err := h.Handle(context.Background(), []byte(tc.payload)); err != nil {
			t.Fatalf("Handle(%q): %v", tc.payload, err)
		}
		if got := trig.reasons[len(trig.reasons)-1]; got != tc.want {
			t.Fatalf("Handle(%q) reason = %q, want %q", tc.payload, got, tc.want)
		}
	}

	n := len(trig.reasons)
	if err := h.Handle(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("malformed payload should not error: %v", err)
	}
	if len(trig.reasons) != n {
		t.Fatalf("malformed payload triggered a refresh")
	}
}

func TestRefreshTriggerLag(t *testing.T) {
	h := NewRefreshTriggerHandler("fincast.refresh", &countingTrigger{}, applogger.Nop())
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	cases := []struct {
		requestedAt string
		want        time.Duration
	}{
		{"2024-03-10T11:59:30Z", 30 * time.Second},
		{"1710071940", time.Minute},
		{"", 0},
		{"yesterday", 0},
		{"2024-03-10T12:05:00Z", 0},
	}
	for _, tc := range cases {
		got := h.lag(models.RefreshTrigger{RequestedAt: tc.requestedAt})
		if got != tc.want {
			t.Fatalf("lag(%q) = %v, want %v", tc.requestedAt, got, tc.want)
		}
	}
	if err := h.Handle(context.Background(), []byte(`{"reason":"manual","requested_at":"2024-03-10"}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}
