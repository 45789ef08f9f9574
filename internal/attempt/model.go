package attempt

import "time"

// DailyAttempt records one attempt at the daily puzzle. Invariant: for a
// given (UserID, DayKey) at most one final record (IsCorrect or Abandoned)
// exists, and a final record is immutable.
type DailyAttempt struct {
	ID               string
	UserID           string
	PuzzleID         string
	DayKey           time.Time
	AttemptedAnswer  string
	IsCorrect        bool
	Abandoned        bool
	AttemptNumber    int
	MaxAttempts      int
	TimeSpentSeconds int
	AttemptedAt      time.Time
	CompletedAt      *time.Time
}

// Final reports whether this attempt terminates the day for the user.
func (a DailyAttempt) Final() bool {
	return a.IsCorrect || a.Abandoned
}

// Data is the caller-supplied portion of an attempt record.
type Data struct {
	AttemptedAnswer  string
	IsCorrect        bool
	Abandoned        bool
	AttemptNumber    int
	MaxAttempts      int
	TimeSpentSeconds int
}

// DayKeyFor truncates a point in time to the UTC midnight that keys daily
// attempt deduplication.
func DayKeyFor(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
