package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/riddleday/riddleday/internal/attempt"
	"github.com/riddleday/riddleday/internal/middleware"
	"github.com/riddleday/riddleday/internal/play"
	"github.com/riddleday/riddleday/internal/puzzle"
)

type guessRequest struct {
	Guess            string `json:"guess"`
	AttemptNumber    int    `json:"attempt_number"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

type abandonRequest struct {
	TimeSpentSeconds int `json:"time_spent_seconds"`
}

// RegisterPuzzleRoutes exposes the daily puzzle and the guess/abandon flow.
// The puzzle payload never includes the canonical answer.
func RegisterPuzzleRoutes(r fiber.Router, svc *play.Service, gate *attempt.Gate, logger *slog.Logger) {
	r.Get("/puzzle/today", func(c *fiber.Ctx) error {
		p, err := svc.TodayPuzzle(c.UserContext())
		if err != nil {
			if errors.Is(err, play.ErrNoPuzzleToday) {
				return fiber.NewError(http.StatusNotFound, "no puzzle scheduled for today")
			}
			logger.Error("load today's puzzle", slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "puzzle unavailable")
		}

		resp := fiber.Map{"puzzle": puzzleJSON(p)}
		uid, _ := c.Locals(middleware.UserIDLocal).(string)
		if final, err := gate.FinalFor(c.UserContext(), uid, gate.Today()); err == nil {
			resp["completed"] = true
			resp["attempt"] = attemptJSON(final)
		} else if errors.Is(err, attempt.ErrNoFinalAttempt) {
			resp["completed"] = false
		} else {
			logger.Warn("check final attempt", slog.String("user_id", uid), slog.Any("error", err))
			resp["completed"] = false
		}
		return c.JSON(resp)
	})

	r.Post("/puzzle/:id/guess", func(c *fiber.Ctx) error {
		uid, _ := c.Locals(middleware.UserIDLocal).(string)
		var req guessRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		if req.Guess == "" {
			return fiber.NewError(http.StatusBadRequest, "guess is required")
		}

		out, err := svc.Guess(c.UserContext(), uid, c.Params("id"), play.GuessInput{
			Guess:            req.Guess,
			AttemptNumber:    req.AttemptNumber,
			TimeSpentSeconds: req.TimeSpentSeconds,
		})
		if err != nil {
			if errors.Is(err, puzzle.ErrNotFound) {
				return fiber.NewError(http.StatusNotFound, "puzzle not found")
			}
			logger.Error("record guess", slog.String("user_id", uid), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "guess failed")
		}

		if out.Final && !out.Gate.Success {
			return c.Status(http.StatusConflict).JSON(fiber.Map{
				"reason": out.Gate.Reason,
			})
		}

		resp := fiber.Map{
			"correct":            out.Match.Accepted(),
			"classification":     string(out.Match.Classification),
			"similarity":         out.Match.Similarity,
			"final":              out.Final,
			"attempts_remaining": out.AttemptsRemaining,
		}
		if out.Final {
			resp["attempt"] = attemptJSON(out.Gate.Attempt)
		}
		return c.JSON(resp)
	})

	r.Post("/puzzle/:id/abandon", func(c *fiber.Ctx) error {
		uid, _ := c.Locals(middleware.UserIDLocal).(string)
		// Body is optional; a bare POST abandons with zero time spent.
		var req abandonRequest
		_ = c.BodyParser(&req)

		res, err := svc.Abandon(c.UserContext(), uid, c.Params("id"), req.TimeSpentSeconds)
		if err != nil {
			if errors.Is(err, puzzle.ErrNotFound) {
				return fiber.NewError(http.StatusNotFound, "puzzle not found")
			}
			logger.Error("abandon puzzle", slog.String("user_id", uid), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "abandon failed")
		}
		if !res.Success {
			return c.Status(http.StatusConflict).JSON(fiber.Map{"reason": res.Reason})
		}
		return c.JSON(fiber.Map{"abandoned": true, "attempt": attemptJSON(res.Attempt)})
	})
}

func puzzleJSON(p puzzle.Puzzle) fiber.Map {
	return fiber.Map{
		"id":           p.ID,
		"prompt":       p.Prompt,
		"category":     p.Category,
		"max_attempts": p.MaxAttempts,
		"publish_day":  p.PublishDay.UTC().Format("2006-01-02"),
	}
}
