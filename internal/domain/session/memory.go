package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryRepository keeps records in process. Records expire ttl after their
// last save; a zero ttl keeps them forever.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryRepository returns an empty repository. A nil clock means time.Now.
func NewMemoryRepository(ttl time.Duration, clock func() time.Time) *MemoryRepository {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryRepository{
		records: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     clock,
	}
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Record, error) {
	r.mu.RLock()
	e, ok := r.records[id]
	r.mu.RUnlock()
	if !ok || r.expired(e) {
		return Record{}, NotFound(id)
	}
	return e.rec.Clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, rec Record) error {
	e := memoryEntry{rec: rec.Clone()}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	r.mu.Lock()
	r.records[rec.ID] = e
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.records, id)
	r.mu.Unlock()
	return nil
}

// Len purges expired records and returns how many remain.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.records {
		if r.expired(e) {
			delete(r.records, id)
		}
	}
	return len(r.records)
}

func (r *MemoryRepository) Backend() string { return "memory" }

func (r *MemoryRepository) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !r.now().Before(e.expiresAt)
}
