package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/riddleday/riddleday/internal/attempt"
	"github.com/riddleday/riddleday/internal/identity"
	"github.com/riddleday/riddleday/internal/middleware"
	"github.com/riddleday/riddleday/internal/stats"
)

const defaultAttemptPageSize = 30

type upgradeRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterMeRoutes exposes the current user's profile, aggregates, attempt
// history, and the guest-to-account upgrade.
func RegisterMeRoutes(r fiber.Router, ids *identity.Service, statsRepo stats.Repository, attempts attempt.Repository, logger *slog.Logger) {
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals(middleware.UserIDLocal).(string)
		user, err := ids.Get(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		identifiedBy, _ := c.Locals(middleware.IdentifiedByLocal).(string)
		return c.JSON(fiber.Map{
			"user_id":       user.ID,
			"is_guest":      user.IsGuest,
			"email":         user.Email,
			"username":      user.Username,
			"identified_by": identifiedBy,
			"created_at":    user.CreatedAt,
		})
	})

	r.Get("/me/stats", func(c *fiber.Ctx) error {
		uid, _ := c.Locals(middleware.UserIDLocal).(string)
		st, err := statsRepo.Get(c.UserContext(), uid)
		if err != nil {
			if errors.Is(err, stats.ErrNotFound) {
				// Stats rows are provisioned with the user; a miss means a
				// fresh account that has not been backfilled yet.
				st = stats.UserStats{UserID: uid}
			} else {
				logger.Error("load stats", slog.String("user_id", uid), slog.Any("error", err))
				return fiber.NewError(http.StatusInternalServerError, "stats unavailable")
			}
		}
		return c.JSON(fiber.Map{
			"user_id":            st.UserID,
			"games_played":       st.GamesPlayed,
			"games_won":          st.GamesWon,
			"current_streak":     st.CurrentStreak,
			"max_streak":         st.MaxStreak,
			"total_time_seconds": st.TotalTimeSeconds,
			"last_played_day":    formatDay(st.LastPlayedDay),
		})
	})

	r.Get("/me/attempts", func(c *fiber.Ctx) error {
		uid, _ := c.Locals(middleware.UserIDLocal).(string)
		limit := defaultAttemptPageSize
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return fiber.NewError(http.StatusBadRequest, "limit must be a positive integer")
			}
			limit = n
		}
		list, err := attempts.ListForUser(c.UserContext(), uid, limit)
		if err != nil {
			logger.Error("list attempts", slog.String("user_id", uid), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "attempt history unavailable")
		}
		out := make([]fiber.Map, 0, len(list))
		for _, a := range list {
			out = append(out, attemptJSON(a))
		}
		return c.JSON(fiber.Map{"attempts": out})
	})

	r.Post("/account/upgrade", func(c *fiber.Ctx) error {
		uid, _ := c.Locals(middleware.UserIDLocal).(string)
		var req upgradeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		user, err := ids.Upgrade(c.UserContext(), uid, req.Email, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidUpgrade) {
				return fiber.NewError(http.StatusBadRequest, err.Error())
			}
			logger.Error("upgrade account", slog.String("user_id", uid), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "upgrade failed")
		}
		return c.JSON(fiber.Map{
			"user_id":  user.ID,
			"is_guest": user.IsGuest,
			"email":    user.Email,
			"username": user.Username,
		})
	})
}

func formatDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}

func attemptJSON(a attempt.DailyAttempt) fiber.Map {
	return fiber.Map{
		"id":                 a.ID,
		"puzzle_id":          a.PuzzleID,
		"day":                a.DayKey.UTC().Format("2006-01-02"),
		"is_correct":         a.IsCorrect,
		"abandoned":          a.Abandoned,
		"attempt_number":     a.AttemptNumber,
		"max_attempts":       a.MaxAttempts,
		"time_spent_seconds": a.TimeSpentSeconds,
		"attempted_at":       a.AttemptedAt,
		"completed_at":       a.CompletedAt,
	}
}
