package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/riddleday/riddleday/internal/auth"
	"github.com/riddleday/riddleday/internal/logging"
	"github.com/riddleday/riddleday/internal/stats"
)

func newTestService(t *testing.T) (*Service, Repository) {
	t.Helper()
	users := NewMemoryRepository()
	statsRepo := stats.NewMemoryRepository()
	hasher := newTestHasher(t)
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	prov := NewProvisioner(users, statsRepo, issuer, 365*24*time.Hour, logging.Discard())
	return NewService(users, NewResolver(users, hasher), prov, hasher), users
}

func TestEnsureUserProvisionsOnMiss(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.EnsureUser(ctx, Signals{IP: "203.0.113.7"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if res.Provisioned == nil {
		t.Fatal("expected a provisioned guest on miss")
	}
	if res.Resolution.Found {
		t.Fatalf("expected miss resolution, got %+v", res.Resolution)
	}

	// The same client presenting the fresh guest token now resolves without
	// provisioning again.
	again, err := svc.EnsureUser(ctx, Signals{GuestToken: res.Provisioned.GuestToken})
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.Provisioned != nil {
		t.Fatal("expected no second provisioning")
	}
	if again.User.ID != res.User.ID {
		t.Fatalf("expected stable identity, got %s then %s", res.User.ID, again.User.ID)
	}
	if again.Resolution.IdentifiedBy != ByGuestToken {
		t.Fatalf("expected guest token resolution, got %s", again.Resolution.IdentifiedBy)
	}
}

func TestUpgradeGuestToAccount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ensured, err := svc.EnsureUser(ctx, Signals{DeviceID: "device-9"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	user, err := svc.Upgrade(ctx, ensured.User.ID, "Player@Example.com", "player1", "hunter2hunter2")
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if user.IsGuest {
		t.Fatal("expected registered account after upgrade")
	}
	if user.Email != "player@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("hunter2hunter2")); err != nil {
		t.Fatalf("password hash mismatch: %v", err)
	}
	if user.DeviceID != "device-9" {
		t.Fatal("expected device binding to survive upgrade")
	}
}

func TestUpgradeValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ensured, err := svc.EnsureUser(ctx, Signals{})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if _, err := svc.Upgrade(ctx, ensured.User.ID, "not-an-email", "p", "hunter2hunter2"); !errors.Is(err, ErrInvalidUpgrade) {
		t.Fatalf("expected ErrInvalidUpgrade for bad email, got %v", err)
	}
	if _, err := svc.Upgrade(ctx, ensured.User.ID, "p@example.com", "p", "short"); !errors.Is(err, ErrInvalidUpgrade) {
		t.Fatalf("expected ErrInvalidUpgrade for short password, got %v", err)
	}
}
