package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/riddleday/riddleday/internal/auth"
	"github.com/riddleday/riddleday/internal/stats"
)

// Provisioned is the material a fresh guest account hands back to the HTTP
// layer: the long-lived guest token and the shorter-lived session credential,
// both to be set as cookies by code outside this package.
type Provisioned struct {
	User            User
	GuestToken      string
	GuestTokenTTL   time.Duration
	SessionToken    string
	SessionTokenTTL time.Duration
}

// Provisioner creates anonymous accounts when resolution misses. Two
// concurrent requests from the same client may both land here; the user-store
// insert is conditional so exactly one wins and the loser reattaches to the
// winner's row.
type Provisioner struct {
	users    Repository
	stats    stats.Repository
	tokens   *auth.TokenIssuer
	guestTTL time.Duration
	logger   *slog.Logger
}

// NewProvisioner constructs a guest account provisioner.
func NewProvisioner(users Repository, statsRepo stats.Repository, tokens *auth.TokenIssuer, guestTTL time.Duration, logger *slog.Logger) *Provisioner {
	return &Provisioner{users: users, stats: statsRepo, tokens: tokens, guestTTL: guestTTL, logger: logger}
}

// Provision creates a guest user, a zeroed stats row and a session
// credential. The creating request's signals are recorded on the user so
// later requests from the same client resolve without the cookie. ipHash is
// the already-derived digest; raw IPs are never stored.
func (p *Provisioner) Provision(ctx context.Context, sig Signals, ipHash string) (Provisioned, error) {
	token, err := newGuestToken()
	if err != nil {
		return Provisioned{}, fmt.Errorf("generate guest token: %w", err)
	}

	user := User{
		ID:         uuid.NewString(),
		IsGuest:    true,
		GuestToken: token,
		DeviceID:   sig.DeviceID,
		IPHash:     ipHash,
		CreatedAt:  time.Now().UTC(),
	}

	if err := p.users.Create(ctx, user); err != nil {
		if !errors.Is(err, ErrDuplicateUser) {
			return Provisioned{}, fmt.Errorf("create guest user: %w", err)
		}
		return p.reattach(ctx, sig, token)
	}

	if err := p.stats.CreateZero(ctx, user.ID); err != nil {
		return Provisioned{}, fmt.Errorf("create zeroed stats: %w", err)
	}

	p.logger.Info("guest account provisioned", slog.String("user_id", user.ID))
	return p.issue(user, token)
}

// reattach recovers from a lost provisioning race: the winner's row already
// exists, so look it up instead of duplicating the user or failing the
// request. Tried once, never looped.
func (p *Provisioner) reattach(ctx context.Context, sig Signals, token string) (Provisioned, error) {
	var (
		user User
		err  error
	)
	if sig.DeviceID != "" {
		user, err = p.users.FindByDeviceID(ctx, sig.DeviceID)
	} else {
		user, err = p.users.FindByGuestToken(ctx, token)
	}
	if err != nil {
		return Provisioned{}, fmt.Errorf("reattach after provisioning race: %w", err)
	}

	p.logger.Info("provisioning race lost, reattached to existing guest", slog.String("user_id", user.ID))
	return p.issue(user, user.GuestToken)
}

func (p *Provisioner) issue(user User, token string) (Provisioned, error) {
	session, err := p.tokens.SignSession(user.ID, user.IsGuest)
	if err != nil {
		return Provisioned{}, fmt.Errorf("sign session credential: %w", err)
	}
	return Provisioned{
		User:            user,
		GuestToken:      token,
		GuestTokenTTL:   p.guestTTL,
		SessionToken:    session,
		SessionTokenTTL: p.tokens.TTL(),
	}, nil
}

func newGuestToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
