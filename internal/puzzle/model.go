package puzzle

import "time"

// Puzzle is one day's riddle. Answer is the canonical solution checked by the
// matcher and never exposed to clients while the day is open.
type Puzzle struct {
	ID          string
	Prompt      string
	Answer      string
	Category    string
	MaxAttempts int
	PublishDay  time.Time
	CreatedAt   time.Time
}
