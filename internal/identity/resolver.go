package identity

import (
	"context"
	"errors"
)

// Resolver maps request signals to a resolved user id using a fixed,
// short-circuiting priority chain: device id, then guest token, then hashed
// IP, then the client-asserted local fallback id. The first signal whose
// lookup succeeds wins; lower-priority signals are never evaluated after a
// match. Resolve performs pure lookups and never creates anything.
type Resolver struct {
	users  Repository
	hasher *IPHasher
}

// NewResolver constructs an identity resolver.
func NewResolver(users Repository, hasher *IPHasher) *Resolver {
	return &Resolver{users: users, hasher: hasher}
}

// Resolve walks the signal chain. A store miss moves on to the next signal;
// a store failure aborts resolution so a degraded store cannot silently
// reassign identities.
func (r *Resolver) Resolve(ctx context.Context, sig Signals) (Resolution, error) {
	if sig.DeviceID != "" {
		user, err := r.users.FindByDeviceID(ctx, sig.DeviceID)
		if err == nil {
			return Resolution{Found: true, UserID: user.ID, IdentifiedBy: ByDeviceID}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Resolution{}, err
		}
	}

	if sig.GuestToken != "" {
		user, err := r.users.FindByGuestToken(ctx, sig.GuestToken)
		if err == nil {
			return Resolution{Found: true, UserID: user.ID, IdentifiedBy: ByGuestToken}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Resolution{}, err
		}
	}

	if sig.IP != "" {
		user, err := r.users.FindByIPHash(ctx, r.hasher.Hash(sig.IP))
		if err == nil {
			return Resolution{Found: true, UserID: user.ID, IdentifiedBy: ByIPHash}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Resolution{}, err
		}
	}

	if sig.LocalFallbackID != "" {
		user, err := r.users.FindByID(ctx, sig.LocalFallbackID)
		if err == nil {
			// The local fallback id only reattaches anonymous sessions after a
			// client storage reset. Registered accounts must authenticate.
			if user.IsGuest {
				return Resolution{Found: true, UserID: user.ID, IdentifiedBy: ByLocalFallback}, nil
			}
		} else if !errors.Is(err, ErrNotFound) {
			return Resolution{}, err
		}
	}

	return Resolution{IdentifiedBy: ByNone}, nil
}
