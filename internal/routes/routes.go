package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/riddleday/riddleday/internal/attempt"
	"github.com/riddleday/riddleday/internal/auth"
	"github.com/riddleday/riddleday/internal/config"
	"github.com/riddleday/riddleday/internal/identity"
	"github.com/riddleday/riddleday/internal/match"
	"github.com/riddleday/riddleday/internal/middleware"
	"github.com/riddleday/riddleday/internal/notification"
	"github.com/riddleday/riddleday/internal/play"
	"github.com/riddleday/riddleday/internal/puzzle"
	"github.com/riddleday/riddleday/internal/stats"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. With a nil DB the
// stores fall back to in-memory implementations, which is only permitted
// outside production.
func Setup(app *fiber.App, d Deps) error {
	if d.Cfg.IsProduction() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Stores
	var (
		users    identity.Repository
		userStat stats.Repository
		attempts attempt.Repository
		puzzles  puzzle.Repository
	)
	if d.DB != nil {
		users = identity.NewPostgresRepository(d.DB)
		userStat = stats.NewPostgresRepository(d.DB)
		attempts = attempt.NewPostgresRepository(d.DB)
		puzzles = puzzle.NewPostgresRepository(d.DB)
	} else {
		users = identity.NewMemoryRepository()
		userStat = stats.NewMemoryRepository()
		attempts = attempt.NewMemoryRepository()
		puzzles = puzzle.NewMemoryRepository()
		seedDemoPuzzle(puzzles, d.Logger)
	}

	// Services
	hasher, err := identity.NewIPHasher(d.Cfg.IsProduction(), d.Cfg.IPHashSalt, d.Logger)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenIssuer(d.Cfg.SessionSecret, d.Cfg.SessionTokenTTL)
	provisioner := identity.NewProvisioner(users, userStat, tokens, d.Cfg.GuestTokenTTL, d.Logger)
	identitySvc := identity.NewService(users, identity.NewResolver(users, hasher), provisioner, hasher)

	gate := attempt.NewGate(attempts)
	matcher := match.NewService(match.StaticJudge{}, d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)
	playSvc := play.NewService(puzzles, gate, matcher, userStat, notifier, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Every request below this point runs as a resolved user; first-time
	// visitors are provisioned as guests inline.
	identified := api.Group("", middleware.Identify(identitySvc, d.Cfg.IsProduction(), d.Logger))
	if d.Cache != nil {
		identified.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
		identified.Use(middleware.GuessRateLimit(d.Cache, d.Cfg.GuessRatePerMin))
	}

	RegisterMeRoutes(identified, identitySvc, userStat, attempts, d.Logger)
	RegisterPuzzleRoutes(identified, playSvc, gate, d.Logger)

	return nil
}

// seedDemoPuzzle schedules a riddle for the current day so the in-memory mode
// is playable out of the box.
func seedDemoPuzzle(puzzles puzzle.Repository, logger *slog.Logger) {
	err := puzzles.Create(context.Background(), puzzle.Puzzle{
		ID:          uuid.NewString(),
		Prompt:      "What has keys but can't open locks?",
		Answer:      "piano",
		Category:    "classic",
		MaxAttempts: 3,
		PublishDay:  attempt.DayKeyFor(time.Now()),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("seed demo puzzle", slog.Any("error", err))
	}
}
