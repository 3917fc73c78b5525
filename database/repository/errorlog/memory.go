package errorlogRepo

import (
	"context"
	"sync"
	"time"

	"denticare/models"
)

// MemoryErrorLogRepo is an in-memory ErrorLogRepository for tests.
type MemoryErrorLogRepo struct {
	mu     sync.RWMutex
	events []models.ErrorEvent
}

func NewMemoryErrorLogRepo() *MemoryErrorLogRepo {
	return &MemoryErrorLogRepo{}
}

func (r *MemoryErrorLogRepo) Append(_ context.Context, event models.ErrorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *MemoryErrorLogRepo) Window(_ context.Context, from, to time.Time) ([]models.ErrorEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ErrorEvent
	for _, ev := range r.events {
		if !ev.Timestamp.Before(from) && ev.Timestamp.Before(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *MemoryErrorLogRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, ev := range r.events {
		if !ev.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryErrorLogRepo) CountByKindSince(_ context.Context, since time.Time) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, ev := range r.events {
		if !ev.Timestamp.Before(since) {
			counts[ev.Kind]++
		}
	}
	return counts, nil
}

func (r *MemoryErrorLogRepo) Size(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.events)), nil
}
