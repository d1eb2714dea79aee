package repository

import (
	"context"
	"strconv"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	pkgkafka "FinCast/pkg/kafka"

	"github.com/guregu/null/v6"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPublisher emits one event per record of a published snapshot, keyed by symbol.
type KafkaPublisher struct {
	producer batchProducer
	topic    string
}

var _ domrepo.PredictionPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PredictionEvent is the wire form of one record.
type PredictionEvent struct {
	CycleID        string     `json:"cycle_id"`
	PublishedAt    time.Time  `json:"published_at"`
	ID             int        `json:"id"`
	Symbol         string     `json:"symbol"`
	Name           string     `json:"name"`
	LastDayPrice   null.Float `json:"last_day_price"`
	CurrentPrice   null.Float `json:"current_price"`
	PredictedPrice null.Float `json:"predicted_price"`
	Signal         string     `json:"signal,omitempty"`
	ComputedAt     time.Time  `json:"computed_at"`
}

func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil || len(snap.Records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(snap.Records))
	for i, r := range snap.Records {
		msgs[i] = pkgkafka.Message{
			Key: []byte(r.Symbol),
			Value: PredictionEvent{
				CycleID:        snap.CycleID,
				PublishedAt:    snap.PublishedAt,
				ID:             r.ID,
				Symbol:         r.Symbol,
				Name:           r.Name,
				LastDayPrice:   r.LastDayPrice,
				CurrentPrice:   r.CurrentPrice,
				PredictedPrice: r.PredictedPrice,
				Signal:         r.Prediction().Signal(),
				ComputedAt:     r.ComputedAt,
			},
			Headers: map[string]string{
				"cycle_id": snap.CycleID,
				"records":  strconv.Itoa(len(snap.Records)),
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
