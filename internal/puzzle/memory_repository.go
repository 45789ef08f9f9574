package puzzle

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]Puzzle
	byDay  map[string]string
}

// NewMemoryRepository builds an in-memory puzzle store for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Puzzle), byDay: make(map[string]string)}
}

func dayKey(t time.Time) string {
	return t.UTC().Truncate(24 * time.Hour).Format("2006-01-02")
}

func (r *memoryRepository) Create(_ context.Context, p Puzzle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(p.PublishDay)
	if _, exists := r.byDay[key]; exists {
		return ErrDuplicateDay
	}
	r.byID[p.ID] = p
	r.byDay[key] = p.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Puzzle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return Puzzle{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) FindForDay(_ context.Context, d time.Time) (Puzzle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byDay[dayKey(d)]
	if !ok {
		return Puzzle{}, ErrNotFound
	}
	return r.byID[id], nil
}
