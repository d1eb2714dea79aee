package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	digests []*LogDigest
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.digests = append(p.digests, payload.(*LogDigest))
	return nil
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "fincast.logs",
		Service:        "fincast",
		Publisher:      pub,
	})

	for i := 0; i < 3; i++ {
		l.Warn("symbol prediction failed", String("symbol", "2222"), Error(errors.New("timeout")))
	}
	l.Error("refresh cycle failed", Error(errors.New("boom")))
	l.Info("not collected")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.digests) != 1 {
		t.Fatalf("got %d digests, want 1", len(pub.digests))
	}
	d := pub.digests[0]
	if pub.topic != "fincast.logs" || d.Service != "fincast" {
		t.Fatalf("topic=%q service=%q", pub.topic, d.Service)
	}
	if len(d.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(d.Entries))
	}
	for _, e := range d.Entries {
		if e.Level == "warn" && e.Count != 3 {
			t.Fatalf("warn count = %d, want 3", e.Count)
		}
	}
}
