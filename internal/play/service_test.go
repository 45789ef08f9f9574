package play

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/riddleday/riddleday/internal/attempt"
	"github.com/riddleday/riddleday/internal/logging"
	"github.com/riddleday/riddleday/internal/match"
	"github.com/riddleday/riddleday/internal/notification"
	"github.com/riddleday/riddleday/internal/puzzle"
	"github.com/riddleday/riddleday/internal/stats"
)

type recordingNotifier struct {
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

type fixture struct {
	svc      *Service
	puzzles  puzzle.Repository
	stats    stats.Repository
	notifier *recordingNotifier
	puzzle   puzzle.Puzzle
	userID   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	puzzles := puzzle.NewMemoryRepository()
	statsRepo := stats.NewMemoryRepository()
	notifier := &recordingNotifier{}
	gate := attempt.NewGate(attempt.NewMemoryRepository()).WithNow(func() time.Time { return now })
	matcher := match.NewService(nil, logging.Discard())

	p := puzzle.Puzzle{
		ID:          uuid.NewString(),
		Prompt:      "It turns to follow the sun",
		Answer:      "sunflower",
		Category:    "nature",
		MaxAttempts: 3,
		PublishDay:  attempt.DayKeyFor(now),
		CreatedAt:   now,
	}
	if err := puzzles.Create(context.Background(), p); err != nil {
		t.Fatalf("seed puzzle: %v", err)
	}

	userID := uuid.NewString()
	if err := statsRepo.CreateZero(context.Background(), userID); err != nil {
		t.Fatalf("seed stats: %v", err)
	}

	return &fixture{
		svc:      NewService(puzzles, gate, matcher, statsRepo, notifier, logging.Discard()),
		puzzles:  puzzles,
		stats:    statsRepo,
		notifier: notifier,
		puzzle:   p,
		userID:   userID,
	}
}

func TestGuessCorrectSettlesDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Guess(ctx, f.userID, f.puzzle.ID, GuessInput{Guess: "Sun-Flower!", AttemptNumber: 1, TimeSpentSeconds: 42})
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if out.Match.Classification != match.ClassExact {
		t.Fatalf("expected exact match, got %s", out.Match.Classification)
	}
	if !out.Final || !out.Gate.Success {
		t.Fatalf("expected settled day, got %+v", out)
	}
	if !out.Gate.Attempt.IsCorrect {
		t.Fatal("expected final:correct attempt")
	}

	st, err := f.stats.Get(ctx, f.userID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.GamesPlayed != 1 || st.GamesWon != 1 || st.CurrentStreak != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.TotalTimeSeconds != 42 {
		t.Fatalf("expected time recorded, got %d", st.TotalTimeSeconds)
	}

	if len(f.notifier.messages) != 1 || f.notifier.messages[0].Kind != notification.KindDailyResult {
		t.Fatalf("expected daily result notification, got %+v", f.notifier.messages)
	}
}

func TestGuessWrongWithAttemptsLeftStaysOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Guess(ctx, f.userID, f.puzzle.ID, GuessInput{Guess: "rose", AttemptNumber: 1})
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if out.Final {
		t.Fatalf("expected open day, got %+v", out)
	}
	if out.AttemptsRemaining != 2 {
		t.Fatalf("expected 2 attempts remaining, got %d", out.AttemptsRemaining)
	}
	if out.Gate.Attempt.Final() {
		t.Fatal("expected in-progress attempt")
	}

	st, _ := f.stats.Get(ctx, f.userID)
	if st.GamesPlayed != 0 {
		t.Fatalf("stats must not move on in-progress attempts, got %+v", st)
	}
}

func TestGuessWrongOnLastAttemptAbandons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Guess(ctx, f.userID, f.puzzle.ID, GuessInput{Guess: "rose", AttemptNumber: 3})
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if !out.Final || !out.Gate.Success {
		t.Fatalf("expected settled day, got %+v", out)
	}
	if !out.Gate.Attempt.Abandoned || out.Gate.Attempt.IsCorrect {
		t.Fatalf("expected final:abandoned, got %+v", out.Gate.Attempt)
	}

	st, _ := f.stats.Get(ctx, f.userID)
	if st.GamesPlayed != 1 || st.GamesWon != 0 || st.CurrentStreak != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestGuessAfterSettledDayRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Guess(ctx, f.userID, f.puzzle.ID, GuessInput{Guess: "sunflower", AttemptNumber: 1}); err != nil {
		t.Fatalf("first guess: %v", err)
	}

	out, err := f.svc.Guess(ctx, f.userID, f.puzzle.ID, GuessInput{Guess: "sunflower", AttemptNumber: 1})
	if err != nil {
		t.Fatalf("second guess: %v", err)
	}
	if out.Gate.Success || out.Gate.Reason != attempt.ReasonAlreadyAttempted {
		t.Fatalf("expected already-attempted, got %+v", out.Gate)
	}

	st, _ := f.stats.Get(ctx, f.userID)
	if st.GamesPlayed != 1 {
		t.Fatalf("stats must not double count, got %+v", st)
	}
}

func TestAbandonSettlesDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Abandon(ctx, f.userID, f.puzzle.ID, 17)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if !res.Success || !res.Attempt.Abandoned {
		t.Fatalf("expected abandoned final attempt, got %+v", res)
	}

	// Abandoning twice is deterministic, not an error.
	again, err := f.svc.Abandon(ctx, f.userID, f.puzzle.ID, 3)
	if err != nil {
		t.Fatalf("second abandon: %v", err)
	}
	if again.Success || again.Reason != attempt.ReasonAlreadyAttempted {
		t.Fatalf("expected already-attempted, got %+v", again)
	}
}

func TestTodayPuzzle(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.TodayPuzzle(context.Background())
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if p.ID != f.puzzle.ID {
		t.Fatalf("expected %s, got %s", f.puzzle.ID, p.ID)
	}
}
