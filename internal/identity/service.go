package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidUpgrade indicates a malformed guest-to-account upgrade request.
var ErrInvalidUpgrade = errors.New("invalid account upgrade")

// Service ties resolution and provisioning together: every request ends up
// with a stable user id, creating a guest account when nothing matches.
type Service struct {
	users       Repository
	resolver    *Resolver
	provisioner *Provisioner
	hasher      *IPHasher
}

// NewService constructs the identity service.
func NewService(users Repository, resolver *Resolver, provisioner *Provisioner, hasher *IPHasher) *Service {
	return &Service{users: users, resolver: resolver, provisioner: provisioner, hasher: hasher}
}

// EnsureResult reports how the caller was attached to a user. Provisioned is
// non-nil only when a fresh guest account was created on this request.
type EnsureResult struct {
	User        User
	Resolution  Resolution
	Provisioned *Provisioned
}

// Resolve exposes pure signal resolution without provisioning.
func (s *Service) Resolve(ctx context.Context, sig Signals) (Resolution, error) {
	return s.resolver.Resolve(ctx, sig)
}

// EnsureUser resolves the caller, provisioning a new guest account on a miss.
func (s *Service) EnsureUser(ctx context.Context, sig Signals) (EnsureResult, error) {
	res, err := s.resolver.Resolve(ctx, sig)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("resolve identity: %w", err)
	}

	if res.Found {
		user, err := s.users.FindByID(ctx, res.UserID)
		if err != nil {
			return EnsureResult{}, fmt.Errorf("load resolved user: %w", err)
		}
		return EnsureResult{User: user, Resolution: res}, nil
	}

	var ipHash string
	if sig.IP != "" {
		ipHash = s.hasher.Hash(sig.IP)
	}
	prov, err := s.provisioner.Provision(ctx, sig, ipHash)
	if err != nil {
		return EnsureResult{}, err
	}
	return EnsureResult{User: prov.User, Resolution: res, Provisioned: &prov}, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.users.FindByID(ctx, id)
}

// Upgrade converts a guest into a registered account with a bcrypt-hashed
// password. The guest token and device binding survive the upgrade so the
// player keeps their history.
func (s *Service) Upgrade(ctx context.Context, userID, email, username, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: email required", ErrInvalidUpgrade)
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidUpgrade)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	if err := s.users.UpgradeToAccount(ctx, userID, email, username, hash); err != nil {
		return User{}, err
	}
	return s.users.FindByID(ctx, userID)
}
