package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/riddleday/riddleday/internal/auth"
	"github.com/riddleday/riddleday/internal/identity"
	"github.com/riddleday/riddleday/internal/logging"
	"github.com/riddleday/riddleday/internal/stats"
)

func setupIdentifyApp(t *testing.T) *fiber.App {
	t.Helper()

	users := identity.NewMemoryRepository()
	statsRepo := stats.NewMemoryRepository()
	hasher, err := identity.NewIPHasher(false, "", logging.Discard())
	if err != nil {
		t.Fatalf("new ip hasher: %v", err)
	}
	tokens := auth.NewTokenIssuer("identify-test-secret", time.Hour)
	svc := identity.NewService(
		users,
		identity.NewResolver(users, hasher),
		identity.NewProvisioner(users, statsRepo, tokens, 30*24*time.Hour, logging.Discard()),
		hasher,
	)

	app := fiber.New()
	app.Use(Identify(svc, false, logging.Discard()))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":       c.Locals(UserIDLocal),
			"identified_by": c.Locals(IdentifiedByLocal),
		})
	})
	return app
}

func cookieValue(resp *http.Response, name string) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func TestIdentifyProvisionsGuestAndSetsCookies(t *testing.T) {
	app := setupIdentifyApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/whoami", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
	if cookieValue(resp, GuestTokenCookie) == "" {
		t.Fatal("expected guest token cookie on first visit")
	}
	if cookieValue(resp, SessionCookie) == "" {
		t.Fatal("expected session cookie on first visit")
	}
}

func TestIdentifyReplayedGuestTokenResolvesSameUser(t *testing.T) {
	app := setupIdentifyApp(t)

	first, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/whoami", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	token := cookieValue(first, GuestTokenCookie)
	if token == "" {
		t.Fatal("expected guest token cookie")
	}

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: GuestTokenCookie, Value: token})
	second, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := cookieValue(second, GuestTokenCookie); got != "" {
		t.Fatalf("expected no fresh provisioning for a known guest, got new token %q", got)
	}
}

func TestIdentifyDeviceHeaderBindsRepeatVisits(t *testing.T) {
	app := setupIdentifyApp(t)

	visit := func() *http.Response {
		req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
		req.Header.Set(deviceIDHeader, "device-abc")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp
	}

	first := visit()
	if cookieValue(first, GuestTokenCookie) == "" {
		t.Fatal("expected provisioning on first device visit")
	}
	second := visit()
	if got := cookieValue(second, GuestTokenCookie); got != "" {
		t.Fatalf("expected device id to resolve existing user, got new token %q", got)
	}
}
