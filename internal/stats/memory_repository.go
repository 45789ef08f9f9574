package stats

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	stats map[string]UserStats
}

// NewMemoryRepository builds an in-memory stats store for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{stats: make(map[string]UserStats)}
}

func (r *memoryRepository) CreateZero(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stats[userID]; exists {
		return nil
	}
	now := time.Now().UTC()
	r.stats[userID] = UserStats{UserID: userID, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (r *memoryRepository) Get(_ context.Context, userID string) (UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stats[userID]
	if !ok {
		return UserStats{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryRepository) Save(_ context.Context, s UserStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stats[s.UserID]; !ok {
		return ErrNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	r.stats[s.UserID] = s
	return nil
}
