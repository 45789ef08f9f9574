package identity

import "time"

// User represents a player account. Most users start as anonymous guests and
// may later be upgraded to a registered account.
type User struct {
	ID           string
	IsGuest      bool
	Email        string
	Username     string
	PasswordHash []byte
	GuestToken   string
	DeviceID     string
	IPHash       string
	CreatedAt    time.Time
}

// Signals carries the per-request evidence used to resolve a caller to a
// user. Signals are ephemeral; only the guest token is persisted (on the
// User record). Raw IPs never leave this package unhashed.
type Signals struct {
	DeviceID        string
	GuestToken      string
	IP              string
	LocalFallbackID string
}

// IdentifiedBy values, in descending trust order.
const (
	ByDeviceID      = "device_id"
	ByGuestToken    = "guest_token"
	ByIPHash        = "ip_hash"
	ByLocalFallback = "local_fallback"
	ByNone          = "none"
)

// Resolution is the outcome of mapping request signals to a user.
type Resolution struct {
	Found        bool
	UserID       string
	IdentifiedBy string
}
