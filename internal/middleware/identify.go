package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/riddleday/riddleday/internal/identity"
)

// Cookie and header names forming the identity contract with clients.
const (
	GuestTokenCookie    = "riddleday_guest"
	SessionCookie       = "riddleday_session"
	deviceIDHeader      = "X-Device-ID"
	localFallbackHeader = "X-Local-Fallback-ID"
)

// Locals keys populated for downstream handlers.
const (
	UserIDLocal       = "user_id"
	IsGuestLocal      = "is_guest"
	IdentifiedByLocal = "identified_by"
)

// Identify attaches every request to a stable user: it collects the identity
// signals from the request, resolves or provisions through the identity
// service, and sets the guest-token and session cookies whenever a fresh
// guest account was created.
func Identify(ids *identity.Service, secureCookies bool, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sig := identity.Signals{
			DeviceID:        c.Get(deviceIDHeader),
			GuestToken:      c.Cookies(GuestTokenCookie),
			IP:              c.IP(),
			LocalFallbackID: c.Get(localFallbackHeader),
		}

		res, err := ids.EnsureUser(c.UserContext(), sig)
		if err != nil {
			logger.Error("identity resolution failed", slog.Any("error", err))
			return fiber.NewError(http.StatusServiceUnavailable, "identity unavailable")
		}

		if prov := res.Provisioned; prov != nil {
			c.Cookie(&fiber.Cookie{
				Name:     GuestTokenCookie,
				Value:    prov.GuestToken,
				Expires:  time.Now().Add(prov.GuestTokenTTL),
				HTTPOnly: true,
				Secure:   secureCookies,
				SameSite: fiber.CookieSameSiteLaxMode,
				Path:     "/",
			})
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    prov.SessionToken,
				Expires:  time.Now().Add(prov.SessionTokenTTL),
				HTTPOnly: true,
				Secure:   secureCookies,
				SameSite: fiber.CookieSameSiteLaxMode,
				Path:     "/",
			})
		}

		c.Locals(UserIDLocal, res.User.ID)
		c.Locals(IsGuestLocal, res.User.IsGuest)
		c.Locals(IdentifiedByLocal, res.Resolution.IdentifiedBy)
		return c.Next()
	}
}
