package usecase

import (
	"context"
	"encoding/json"
	"time"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/util"
)

// RefreshTriggerer starts an out-of-band refresh cycle. It reports false when
// a cycle is already running.
type RefreshTriggerer interface {
	TriggerNow(reason string) bool
}

// RefreshTriggerHandler consumes refresh requests from Kafka.
type RefreshTriggerHandler struct {
	topic   string
	trigger RefreshTriggerer
	log     *applogger.Logger
	now     func() time.Time
}

func NewRefreshTriggerHandler(topic string, trigger RefreshTriggerer, l *applogger.Logger) *RefreshTriggerHandler {
	return &RefreshTriggerHandler{topic: topic, trigger: trigger, log: l, now: time.Now}
}

// lag reports how long a trigger waited on the topic. A missing or
// unparseable requested_at counts as zero lag.
func (h *RefreshTriggerHandler) lag(msg models.RefreshTrigger) time.Duration {
	now := h.now()
	lag := now.Sub(util.ParseTimeDefault(msg.RequestedAt, now))
	if lag < 0 {
		return 0
	}
	return lag
}

func (h *RefreshTriggerHandler) Topic() string { return h.topic }

// Handle never returns an error for a malformed message, so it is not redelivered.
func (h *RefreshTriggerHandler) Handle(ctx context.Context, payload []byte) error {
	msg := models.RefreshTrigger{Reason: "kafka"}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.log.Warn("invalid refresh trigger", applogger.Error(err))
			return nil
		}
	}
	if msg.Reason == "" {
		msg.Reason = "kafka"
	}
	lag := h.lag(msg)
	if !h.trigger.TriggerNow(msg.Reason) {
		h.log.Info("refresh already running, trigger ignored", applogger.String("reason", msg.Reason), applogger.Duration("lag", lag))
		return nil
	}
	h.log.Info("refresh triggered", applogger.String("reason", msg.Reason), applogger.Duration("lag", lag))
	return nil
}
