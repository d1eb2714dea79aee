package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval (e.g., 30s)
	CountThreshold int           // max unique entries before flush (e.g., 100)
	Topic          string        // topic receiving the digests
	Service        string        // copied into every digest
	Publisher      Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogDigest is one flush worth of deduplicated warn/error entries.
type LogDigest struct {
	Service     string               `json:"service"`
	WindowStart time.Time            `json:"window_start"`
	WindowEnd   time.Time            `json:"window_end"`
	Entries     []AggregatedLogEntry `json:"entries"`
}

// LogCollector deduplicates warn/error entries and periodically publishes
// them as a LogDigest. A refresh cycle that fails the same symbol every hour
// shows up as one entry with a growing count.
type LogCollector struct {
	config      *CollectionConfig
	logMap      map[string]*AggregatedLogEntry
	windowStart time.Time
	mutex       sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}
	ctx, cancel := context.WithCancel(context.Background())

	collector := &LogCollector{
		config:      config,
		logMap:      make(map[string]*AggregatedLogEntry),
		windowStart: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}

	collector.wg.Add(1)
	go collector.periodicFlush()

	return collector
}

func (d *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := d.generateKey(level, message, fields, caller)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if entry, exists := d.logMap[key]; exists {
		entry.Count++
		entry.LastSeen = now
	} else {
		d.logMap[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}

	if len(d.logMap) >= d.config.CountThreshold {
		d.publish(d.drainLocked(now))
	}
}

func (d *LogCollector) generateKey(level, message string, fields map[string]interface{}, caller string) string {
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{
		Level:   level,
		Message: message,
		Fields:  fields,
		Caller:  caller,
	}

	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%x", hash)
}

func (d *LogCollector) periodicFlush() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			d.mutex.Lock()
			digest := d.drainLocked(now)
			d.mutex.Unlock()
			d.publish(digest)
		case <-d.ctx.Done():
			d.mutex.Lock()
			digest := d.drainLocked(time.Now())
			d.mutex.Unlock()
			// synchronous on shutdown so the last digest is not lost
			d.send(digest)
			return
		}
	}
}

// drainLocked empties the map into a digest. Caller holds d.mutex.
func (d *LogCollector) drainLocked(now time.Time) *LogDigest {
	if len(d.logMap) == 0 {
		return nil
	}
	digest := &LogDigest{
		Service:     d.config.Service,
		WindowStart: d.windowStart,
		WindowEnd:   now,
		Entries:     make([]AggregatedLogEntry, 0, len(d.logMap)),
	}
	for _, entry := range d.logMap {
		digest.Entries = append(digest.Entries, *entry)
	}
	d.logMap = make(map[string]*AggregatedLogEntry)
	d.windowStart = now
	return digest
}

func (d *LogCollector) publish(digest *LogDigest) {
	if digest == nil {
		return
	}
	go d.send(digest)
}

func (d *LogCollector) send(digest *LogDigest) {
	if digest == nil || d.config.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.config.Publisher.PublishMessage(ctx, d.config.Topic, digest); err != nil {
		// the logger itself feeds this collector, so report on stderr
		fmt.Fprintf(os.Stderr, "log collector: publish digest: %v\n", err)
	}
}

func (d *LogCollector) Close() {
	d.cancel()
	d.wg.Wait()
}
