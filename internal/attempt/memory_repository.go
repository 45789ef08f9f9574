package attempt

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	finals   map[string]DailyAttempt // keyed by userID + "|" + dayKey
	progress []DailyAttempt
}

// NewMemoryRepository builds an in-memory attempt store for tests and dev
// mode. The finals map gives the same insert-if-absent semantics as the
// Postgres partial unique index.
func NewMemoryRepository() Repository {
	return &memoryRepository{finals: make(map[string]DailyAttempt)}
}

func finalKey(userID string, day time.Time) string {
	return userID + "|" + DayKeyFor(day).Format("2006-01-02")
}

func (r *memoryRepository) InsertFinalIfAbsent(_ context.Context, att DailyAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := finalKey(att.UserID, att.DayKey)
	if _, exists := r.finals[key]; exists {
		return ErrAlreadyAttempted
	}
	att.DayKey = DayKeyFor(att.DayKey)
	r.finals[key] = att
	return nil
}

func (r *memoryRepository) RecordProgress(_ context.Context, att DailyAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	att.DayKey = DayKeyFor(att.DayKey)
	r.progress = append(r.progress, att)
	return nil
}

func (r *memoryRepository) FindFinal(_ context.Context, userID string, day time.Time) (DailyAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	att, ok := r.finals[finalKey(userID, day)]
	if !ok {
		return DailyAttempt{}, ErrNoFinalAttempt
	}
	return att, nil
}

func (r *memoryRepository) ListForUser(_ context.Context, userID string, limit int) ([]DailyAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 30
	}
	var out []DailyAttempt
	for _, att := range r.finals {
		if att.UserID == userID {
			out = append(out, att)
		}
	}
	for _, att := range r.progress {
		if att.UserID == userID {
			out = append(out, att)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.After(out[j].AttemptedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
