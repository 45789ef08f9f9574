package attempt

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAlreadyAttempted indicates a final attempt already exists for the
	// (user, day) pair. An expected, recoverable condition under concurrent
	// submissions, never retried automatically.
	ErrAlreadyAttempted = errors.New("final attempt already recorded for day")

	// ErrNoFinalAttempt indicates the user has no final attempt for the day.
	ErrNoFinalAttempt = errors.New("no final attempt for day")
)

// Repository persists daily attempts. InsertFinalIfAbsent must be a single
// atomic conditional insert — never a read-then-write — so concurrent callers
// for the same (user, day) produce exactly one final record.
type Repository interface {
	InsertFinalIfAbsent(ctx context.Context, att DailyAttempt) error
	RecordProgress(ctx context.Context, att DailyAttempt) error
	FindFinal(ctx context.Context, userID string, day time.Time) (DailyAttempt, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]DailyAttempt, error)
}

// PostgresRepository implements Repository using PostgreSQL. The uniqueness
// invariant lives in a partial unique index on (user_id, day_key) covering
// final rows only.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed attempt repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertAttempt = `INSERT INTO daily_attempts
    (id, user_id, puzzle_id, day_key, attempted_answer, is_correct, abandoned,
     attempt_number, max_attempts, time_spent_seconds, attempted_at, completed_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// InsertFinalIfAbsent writes a final attempt, reporting ErrAlreadyAttempted
// when the day is already settled for the user.
func (r *PostgresRepository) InsertFinalIfAbsent(ctx context.Context, att DailyAttempt) error {
	args, err := attemptArgs(att)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, insertAttempt+` ON CONFLICT DO NOTHING`, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyAttempted
	}
	return nil
}

// RecordProgress writes a non-final, in-progress attempt. Not gated.
func (r *PostgresRepository) RecordProgress(ctx context.Context, att DailyAttempt) error {
	args, err := attemptArgs(att)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, insertAttempt, args...)
	return err
}

const attemptColumns = `id, user_id, puzzle_id, day_key, attempted_answer, is_correct, abandoned,
    attempt_number, max_attempts, time_spent_seconds, attempted_at, completed_at`

// FindFinal fetches the settled attempt for the (user, day) pair.
func (r *PostgresRepository) FindFinal(ctx context.Context, userID string, day time.Time) (DailyAttempt, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return DailyAttempt{}, ErrNoFinalAttempt
	}
	row := r.db.QueryRow(ctx, `SELECT `+attemptColumns+` FROM daily_attempts
        WHERE user_id = $1 AND day_key = $2 AND (is_correct OR abandoned)`, uid, DayKeyFor(day))
	att, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DailyAttempt{}, ErrNoFinalAttempt
		}
		return DailyAttempt{}, err
	}
	return att, nil
}

// ListForUser returns the user's most recent attempts, newest first.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string, limit int) ([]DailyAttempt, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.Query(ctx, `SELECT `+attemptColumns+` FROM daily_attempts
        WHERE user_id = $1 ORDER BY attempted_at DESC LIMIT $2`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyAttempt
	for rows.Next() {
		att, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, rows.Err()
}

func attemptArgs(att DailyAttempt) ([]any, error) {
	id, err := uuid.Parse(att.ID)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(att.UserID)
	if err != nil {
		return nil, err
	}
	pid, err := uuid.Parse(att.PuzzleID)
	if err != nil {
		return nil, err
	}
	var completed *time.Time
	if att.CompletedAt != nil {
		utc := att.CompletedAt.UTC()
		completed = &utc
	}
	return []any{id, uid, pid, DayKeyFor(att.DayKey), att.AttemptedAnswer, att.IsCorrect, att.Abandoned,
		att.AttemptNumber, att.MaxAttempts, att.TimeSpentSeconds, att.AttemptedAt.UTC(), completed}, nil
}

func scanAttempt(row pgx.Row) (DailyAttempt, error) {
	var (
		id  uuid.UUID
		uid uuid.UUID
		pid uuid.UUID
		att DailyAttempt
	)
	if err := row.Scan(&id, &uid, &pid, &att.DayKey, &att.AttemptedAnswer, &att.IsCorrect, &att.Abandoned,
		&att.AttemptNumber, &att.MaxAttempts, &att.TimeSpentSeconds, &att.AttemptedAt, &att.CompletedAt); err != nil {
		return DailyAttempt{}, err
	}
	att.ID = id.String()
	att.UserID = uid.String()
	att.PuzzleID = pid.String()
	att.DayKey = DayKeyFor(att.DayKey)
	att.AttemptedAt = att.AttemptedAt.UTC()
	return att, nil
}
