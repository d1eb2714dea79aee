package snapshot

import (
	"sync"
	"sync/atomic"
	"time"

	"FinCast/internal/domain/models"
)

// Store holds the single current Snapshot. Readers never block: Publish
// swaps one pointer and readers see either the old or the new snapshot in full.
type Store struct {
	cur atomic.Pointer[models.Snapshot]

	mu        sync.Mutex
	listeners []func(*models.Snapshot)
}

func New() *Store {
	return &Store{}
}

// Load returns the current snapshot or nil before the first publish.
// The returned value must not be modified.
func (s *Store) Load() *models.Snapshot {
	return s.cur.Load()
}

// Records returns the current records, or an empty non-nil slice when empty.
func (s *Store) Records() []models.PredictionRecord {
	snap := s.cur.Load()
	if snap == nil || snap.Records == nil {
		return []models.PredictionRecord{}
	}
	return snap.Records
}

// Lookup finds the record for company id in the current snapshot.
func (s *Store) Lookup(id int) (models.PredictionRecord, bool) {
	return s.cur.Load().Find(id)
}

// Age reports how long ago the current snapshot was published and whether one exists.
func (s *Store) Age(now time.Time) (time.Duration, bool) {
	snap := s.cur.Load()
	if snap == nil {
		return 0, false
	}
	return now.Sub(snap.PublishedAt), true
}

// Publish replaces the current snapshot and notifies listeners. snap must
// be fully built and is owned by the store afterwards.
func (s *Store) Publish(snap *models.Snapshot) {
	s.cur.Store(snap)

	s.mu.Lock()
	ls := make([]func(*models.Snapshot), len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	for _, fn := range ls {
		fn(snap)
	}
}

// OnPublish registers fn to run after every publish. fn must not block.
func (s *Store) OnPublish(fn func(*models.Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}
