package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/riddleday/riddleday/internal/attempt"
	"github.com/riddleday/riddleday/internal/match"
	"github.com/riddleday/riddleday/internal/notification"
	"github.com/riddleday/riddleday/internal/puzzle"
	"github.com/riddleday/riddleday/internal/stats"
)

// ErrNoPuzzleToday indicates nothing is scheduled for the current day.
var ErrNoPuzzleToday = errors.New("no puzzle scheduled for today")

// Service drives the attempt-recording flow: look up the puzzle, score the
// guess, and push terminal outcomes through the attempt gate.
type Service struct {
	puzzles  puzzle.Repository
	gate     *attempt.Gate
	matcher  *match.Service
	stats    stats.Repository
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs the play service.
func NewService(puzzles puzzle.Repository, gate *attempt.Gate, matcher *match.Service, statsRepo stats.Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{puzzles: puzzles, gate: gate, matcher: matcher, stats: statsRepo, notifier: notifier, logger: logger}
}

// GuessInput carries one guess submission.
type GuessInput struct {
	Guess            string
	AttemptNumber    int
	TimeSpentSeconds int
}

// GuessOutcome reports the scored guess and, for terminal guesses, the gate
// decision.
type GuessOutcome struct {
	Match             match.MatchResult
	Final             bool
	Gate              attempt.Result
	AttemptsRemaining int
}

// TodayPuzzle returns the puzzle scheduled for the current UTC day.
func (s *Service) TodayPuzzle(ctx context.Context) (puzzle.Puzzle, error) {
	p, err := s.puzzles.FindForDay(ctx, s.gate.Today())
	if err != nil {
		if errors.Is(err, puzzle.ErrNotFound) {
			return puzzle.Puzzle{}, ErrNoPuzzleToday
		}
		return puzzle.Puzzle{}, fmt.Errorf("find today's puzzle: %w", err)
	}
	return p, nil
}

// Guess scores one submission. A correct guess settles the day as
// final:correct; a wrong guess on the last allowed attempt settles it as
// final:abandoned; a wrong guess with attempts remaining records in-progress.
func (s *Service) Guess(ctx context.Context, userID, puzzleID string, in GuessInput) (GuessOutcome, error) {
	p, err := s.puzzles.FindByID(ctx, puzzleID)
	if err != nil {
		return GuessOutcome{}, err
	}

	res := s.matcher.Check(ctx, in.Guess, p.Answer)

	attemptNumber := in.AttemptNumber
	if attemptNumber < 1 {
		attemptNumber = 1
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	final := res.Accepted() || attemptNumber >= maxAttempts
	data := attempt.Data{
		AttemptedAnswer:  in.Guess,
		IsCorrect:        res.Accepted(),
		Abandoned:        final && !res.Accepted(),
		AttemptNumber:    attemptNumber,
		MaxAttempts:      maxAttempts,
		TimeSpentSeconds: in.TimeSpentSeconds,
	}

	gateRes, err := s.gate.RecordAttempt(ctx, userID, p.ID, data)
	if err != nil {
		return GuessOutcome{}, err
	}

	out := GuessOutcome{Match: res, Final: final, Gate: gateRes}
	if remaining := maxAttempts - attemptNumber; remaining > 0 && !final {
		out.AttemptsRemaining = remaining
	}

	if final && gateRes.Success {
		s.settle(ctx, userID, gateRes.Attempt)
	}
	return out, nil
}

// Abandon settles the day as final:abandoned on the player's explicit give-up.
func (s *Service) Abandon(ctx context.Context, userID, puzzleID string, timeSpentSeconds int) (attempt.Result, error) {
	p, err := s.puzzles.FindByID(ctx, puzzleID)
	if err != nil {
		return attempt.Result{}, err
	}

	gateRes, err := s.gate.RecordAttempt(ctx, userID, p.ID, attempt.Data{
		Abandoned:        true,
		AttemptNumber:    p.MaxAttempts,
		MaxAttempts:      p.MaxAttempts,
		TimeSpentSeconds: timeSpentSeconds,
	})
	if err != nil {
		return attempt.Result{}, err
	}
	if gateRes.Success {
		s.settle(ctx, userID, gateRes.Attempt)
	}
	return gateRes, nil
}

// settle folds the final attempt into the user's aggregates and emits the
// result notification. Best effort: a stats or notifier failure must not
// undo an already-persisted attempt.
func (s *Service) settle(ctx context.Context, userID string, att attempt.DailyAttempt) {
	st, err := s.stats.Get(ctx, userID)
	if errors.Is(err, stats.ErrNotFound) {
		// Provisioning creates the zeroed row, but repair a missing one
		// rather than losing the result.
		if err = s.stats.CreateZero(ctx, userID); err == nil {
			st, err = s.stats.Get(ctx, userID)
		}
	}
	if err != nil {
		s.logger.Warn("load stats", slog.String("user_id", userID), slog.Any("error", err))
		return
	}

	st = st.Apply(stats.Result{Won: att.IsCorrect, Day: att.DayKey, TimeSpentSeconds: att.TimeSpentSeconds})
	if err := s.stats.Save(ctx, st); err != nil {
		s.logger.Warn("save stats", slog.String("user_id", userID), slog.Any("error", err))
	}

	msg := notification.Message{Kind: notification.KindDailyResult, UserID: userID, Body: resultBody(att)}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("send result notification", slog.String("user_id", userID), slog.Any("error", err))
	}
	if att.IsCorrect && st.CurrentStreak > 0 && st.CurrentStreak%7 == 0 {
		streak := notification.Message{
			Kind:   notification.KindStreakMilestone,
			UserID: userID,
			Body:   fmt.Sprintf("%d day streak", st.CurrentStreak),
		}
		if err := s.notifier.Send(ctx, streak); err != nil {
			s.logger.Warn("send streak notification", slog.String("user_id", userID), slog.Any("error", err))
		}
	}
}

func resultBody(att attempt.DailyAttempt) string {
	if att.IsCorrect {
		return fmt.Sprintf("solved in %d attempt(s)", att.AttemptNumber)
	}
	return "better luck tomorrow"
}
