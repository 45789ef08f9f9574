package identity

import (
	"context"
	"testing"
	"time"

	"github.com/riddleday/riddleday/internal/logging"
)

func newTestHasher(t *testing.T) *IPHasher {
	t.Helper()
	hasher, err := NewIPHasher(true, "test-salt", logging.Discard())
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return hasher
}

func seedUser(t *testing.T, repo Repository, user User) User {
	t.Helper()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", user.ID, err)
	}
	return user
}

func TestResolveDeviceIDWinsOverGuestToken(t *testing.T) {
	repo := NewMemoryRepository()
	hasher := newTestHasher(t)
	resolver := NewResolver(repo, hasher)
	ctx := context.Background()

	deviceUser := seedUser(t, repo, User{ID: "11111111-1111-1111-1111-111111111111", IsGuest: true, DeviceID: "device-1"})
	seedUser(t, repo, User{ID: "22222222-2222-2222-2222-222222222222", IsGuest: true, GuestToken: "token-2"})

	res, err := resolver.Resolve(ctx, Signals{DeviceID: "device-1", GuestToken: "token-2"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Found || res.UserID != deviceUser.ID {
		t.Fatalf("expected device user %s, got %+v", deviceUser.ID, res)
	}
	if res.IdentifiedBy != ByDeviceID {
		t.Fatalf("expected identified_by %s, got %s", ByDeviceID, res.IdentifiedBy)
	}
}

func TestResolveChainOrder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		seed   User
		sig    Signals
		wantBy string
	}{
		{
			name:   "guest token when no device match",
			seed:   User{ID: "22222222-2222-2222-2222-222222222222", IsGuest: true, GuestToken: "token-2"},
			sig:    Signals{DeviceID: "unknown-device", GuestToken: "token-2", IP: "203.0.113.7"},
			wantBy: ByGuestToken,
		},
		{
			name:   "ip hash when cookies are gone",
			seed:   User{ID: "33333333-3333-3333-3333-333333333333", IsGuest: true},
			sig:    Signals{IP: "203.0.113.7"},
			wantBy: ByIPHash,
		},
		{
			name:   "local fallback as last resort",
			seed:   User{ID: "44444444-4444-4444-4444-444444444444", IsGuest: true},
			sig:    Signals{IP: "198.51.100.9", LocalFallbackID: "44444444-4444-4444-4444-444444444444"},
			wantBy: ByLocalFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMemoryRepository()
			hasher := newTestHasher(t)
			resolver := NewResolver(repo, hasher)

			seed := tt.seed
			if tt.wantBy == ByIPHash {
				seed.IPHash = hasher.Hash(tt.sig.IP)
			}
			seedUser(t, repo, seed)

			res, err := resolver.Resolve(ctx, tt.sig)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if !res.Found || res.UserID != seed.ID {
				t.Fatalf("expected user %s, got %+v", seed.ID, res)
			}
			if res.IdentifiedBy != tt.wantBy {
				t.Fatalf("expected identified_by %s, got %s", tt.wantBy, res.IdentifiedBy)
			}
		})
	}
}

func TestResolveMissReturnsNone(t *testing.T) {
	resolver := NewResolver(NewMemoryRepository(), newTestHasher(t))

	res, err := resolver.Resolve(context.Background(), Signals{DeviceID: "nope", GuestToken: "nope", IP: "203.0.113.7", LocalFallbackID: "nope"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Found || res.IdentifiedBy != ByNone {
		t.Fatalf("expected miss, got %+v", res)
	}
}

func TestResolveLocalFallbackIgnoresRegisteredAccounts(t *testing.T) {
	repo := NewMemoryRepository()
	resolver := NewResolver(repo, newTestHasher(t))

	registered := seedUser(t, repo, User{ID: "55555555-5555-5555-5555-555555555555", IsGuest: false, Email: "a@b.c"})

	res, err := resolver.Resolve(context.Background(), Signals{LocalFallbackID: registered.ID})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Found {
		t.Fatalf("expected miss for registered account via local fallback, got %+v", res)
	}
}
