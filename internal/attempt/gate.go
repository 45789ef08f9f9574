package attempt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReasonAlreadyAttempted is the structured failure reason returned when the
// user's day is already settled.
const ReasonAlreadyAttempted = "already-attempted-today"

// Result is the outcome of RecordAttempt. A duplicate final attempt is not an
// error: Success is false and Reason explains why.
type Result struct {
	Success bool
	Reason  string
	Attempt DailyAttempt
}

// Gate enforces at most one final attempt per user per UTC day. Per (user,
// day) the state machine is: no-attempt -> in-progress (attempts used < max)
// -> final correct or final abandoned, with no transitions accepted once a
// final state is reached.
type Gate struct {
	attempts Repository
	now      func() time.Time
}

// NewGate constructs an attempt gate over the given store.
func NewGate(attempts Repository) *Gate {
	return &Gate{attempts: attempts, now: time.Now}
}

// WithNow overrides the gate's clock. For tests.
func (g *Gate) WithNow(now func() time.Time) *Gate {
	g.now = now
	return g
}

// RecordAttempt persists one attempt for the current UTC day. Final attempts
// (correct or abandoned) go through the store's atomic conditional insert so
// that under concurrent calls exactly one wins; the loser gets a
// deterministic already-attempted result. In-progress attempts are recorded
// freely while the day is unsettled.
func (g *Gate) RecordAttempt(ctx context.Context, userID, puzzleID string, data Data) (Result, error) {
	now := g.now().UTC()
	completed := now

	att := DailyAttempt{
		ID:               uuid.NewString(),
		UserID:           userID,
		PuzzleID:         puzzleID,
		DayKey:           DayKeyFor(now),
		AttemptedAnswer:  data.AttemptedAnswer,
		IsCorrect:        data.IsCorrect,
		Abandoned:        data.Abandoned,
		AttemptNumber:    maxInt(data.AttemptNumber, 1),
		MaxAttempts:      maxInt(data.MaxAttempts, 1),
		TimeSpentSeconds: data.TimeSpentSeconds,
		AttemptedAt:      now,
	}

	if att.Final() {
		att.CompletedAt = &completed
		if err := g.attempts.InsertFinalIfAbsent(ctx, att); err != nil {
			if errors.Is(err, ErrAlreadyAttempted) {
				return Result{Reason: ReasonAlreadyAttempted}, nil
			}
			return Result{}, fmt.Errorf("insert final attempt: %w", err)
		}
		return Result{Success: true, Attempt: att}, nil
	}

	// The terminal write above is the only gated one, but a settled day also
	// refuses further in-progress records.
	if _, err := g.attempts.FindFinal(ctx, userID, att.DayKey); err == nil {
		return Result{Reason: ReasonAlreadyAttempted}, nil
	} else if !errors.Is(err, ErrNoFinalAttempt) {
		return Result{}, fmt.Errorf("check final attempt: %w", err)
	}

	if err := g.attempts.RecordProgress(ctx, att); err != nil {
		return Result{}, fmt.Errorf("record progress attempt: %w", err)
	}
	return Result{Success: true, Attempt: att}, nil
}

// FinalFor returns the settled attempt for the user's given day, if any.
func (g *Gate) FinalFor(ctx context.Context, userID string, day time.Time) (DailyAttempt, error) {
	return g.attempts.FindFinal(ctx, userID, day)
}

// Today returns the current UTC day key as seen by the gate's clock.
func (g *Gate) Today() time.Time {
	return DayKeyFor(g.now())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
