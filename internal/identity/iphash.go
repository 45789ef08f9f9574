package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
)

// ErrMissingSalt indicates a production deployment without an operator-supplied
// IP hash salt. This is a fatal misconfiguration, never downgraded to a
// default salt.
var ErrMissingSalt = errors.New("IP_HASH_SALT is required in production")

const devSalt = "riddleday-dev-ip-salt"

// IPHasher derives a one-way, salted digest of a caller's IP so the store can
// index users by IP without ever persisting the address itself. Rotating the
// salt invalidates all prior IP-based lookups.
type IPHasher struct {
	salt string
}

// NewIPHasher validates the salt policy for the current environment. In
// non-production an empty salt falls back to a fixed development salt with a
// loud warning.
func NewIPHasher(production bool, salt string, logger *slog.Logger) (*IPHasher, error) {
	if salt == "" {
		if production {
			return nil, ErrMissingSalt
		}
		logger.Warn("IP_HASH_SALT not set, using fixed development salt; set a real salt before production")
		salt = devSalt
	}
	return &IPHasher{salt: salt}, nil
}

// Hash returns the hex digest of salt||ip. Deterministic for fixed inputs.
func (h *IPHasher) Hash(ip string) string {
	sum := sha256.Sum256([]byte(h.salt + ip))
	return hex.EncodeToString(sum[:])
}
