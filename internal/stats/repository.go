package stats

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no stats row exists for the user.
var ErrNotFound = errors.New("stats not found")

// Repository persists per-user aggregates. CreateZero must be an atomic
// insert-if-absent: a duplicate create (e.g. from a lost provisioning race)
// is a no-op, not an error.
type Repository interface {
	CreateZero(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (UserStats, error)
	Save(ctx context.Context, s UserStats) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed stats repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateZero inserts a zeroed stats row for the user if none exists.
func (r *PostgresRepository) CreateZero(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `INSERT INTO user_stats (user_id, created_at, updated_at)
        VALUES ($1, $2, $2) ON CONFLICT (user_id) DO NOTHING`, id, now)
	return err
}

// Get fetches the aggregates for a user.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (UserStats, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return UserStats{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT user_id, games_played, games_won, current_streak, max_streak,
        total_time_seconds, last_played_day, created_at, updated_at FROM user_stats WHERE user_id = $1`, id)
	var (
		uid uuid.UUID
		s   UserStats
	)
	if err := row.Scan(&uid, &s.GamesPlayed, &s.GamesWon, &s.CurrentStreak, &s.MaxStreak,
		&s.TotalTimeSeconds, &s.LastPlayedDay, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserStats{}, ErrNotFound
		}
		return UserStats{}, err
	}
	s.UserID = uid.String()
	return s, nil
}

// Save writes back updated aggregates.
func (r *PostgresRepository) Save(ctx context.Context, s UserStats) error {
	id, err := uuid.Parse(s.UserID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE user_stats SET games_played = $1, games_won = $2, current_streak = $3,
        max_streak = $4, total_time_seconds = $5, last_played_day = $6, updated_at = $7 WHERE user_id = $8`,
		s.GamesPlayed, s.GamesWon, s.CurrentStreak, s.MaxStreak, s.TotalTimeSeconds, s.LastPlayedDay,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
