package identity

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User // keyed by user id
}

// NewMemoryRepository builds an in-memory user store for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		return ErrDuplicateUser
	}
	for _, existing := range r.users {
		if user.GuestToken != "" && existing.GuestToken == user.GuestToken {
			return ErrDuplicateUser
		}
		if user.DeviceID != "" && existing.DeviceID == user.DeviceID {
			return ErrDuplicateUser
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByDeviceID(_ context.Context, deviceID string) (User, error) {
	return r.findFirst(func(u User) bool { return deviceID != "" && u.DeviceID == deviceID })
}

func (r *memoryRepository) FindByGuestToken(_ context.Context, token string) (User, error) {
	return r.findFirst(func(u User) bool { return token != "" && u.GuestToken == token })
}

func (r *memoryRepository) FindByIPHash(_ context.Context, ipHash string) (User, error) {
	return r.findFirst(func(u User) bool { return ipHash != "" && u.IPHash == ipHash })
}

func (r *memoryRepository) UpgradeToAccount(_ context.Context, id, email, username string, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.IsGuest {
		return ErrNotFound
	}
	user.IsGuest = false
	user.Email = email
	user.Username = username
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

// findFirst mirrors the Postgres secondary-index lookups: oldest matching
// user wins, so repeated lookups stay deterministic.
func (r *memoryRepository) findFirst(match func(User) bool) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var candidates []User
	for _, u := range r.users {
		if match(u) {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return User{}, ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CreatedAt.Before(candidates[j].CreatedAt) })
	return candidates[0], nil
}
