package stats

import "time"

// UserStats aggregates a player's lifetime results. A zeroed row is created
// when the account is provisioned.
type UserStats struct {
	UserID           string
	GamesPlayed      int
	GamesWon         int
	CurrentStreak    int
	MaxStreak        int
	TotalTimeSeconds int64
	LastPlayedDay    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Result describes a single finished day used to advance the aggregates.
type Result struct {
	Won              bool
	Day              time.Time
	TimeSpentSeconds int
}

// Apply folds a daily result into the aggregates. The streak only advances
// when the played day immediately follows the last played day.
func (s UserStats) Apply(res Result) UserStats {
	day := res.Day.UTC().Truncate(24 * time.Hour)

	s.GamesPlayed++
	s.TotalTimeSeconds += int64(res.TimeSpentSeconds)

	if res.Won {
		s.GamesWon++
		if s.LastPlayedDay != nil && day.Sub(*s.LastPlayedDay) == 24*time.Hour {
			s.CurrentStreak++
		} else {
			s.CurrentStreak = 1
		}
		if s.CurrentStreak > s.MaxStreak {
			s.MaxStreak = s.CurrentStreak
		}
	} else {
		s.CurrentStreak = 0
	}

	s.LastPlayedDay = &day
	return s
}
