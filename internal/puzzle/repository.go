package puzzle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no puzzle matched the lookup.
	ErrNotFound = errors.New("puzzle not found")

	// ErrDuplicateDay indicates a puzzle is already scheduled for the day.
	ErrDuplicateDay = errors.New("puzzle already scheduled for day")
)

// Repository persists puzzles.
type Repository interface {
	Create(ctx context.Context, p Puzzle) error
	FindByID(ctx context.Context, id string) (Puzzle, error)
	FindForDay(ctx context.Context, day time.Time) (Puzzle, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed puzzle repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create schedules a puzzle, one per publish day.
func (r *PostgresRepository) Create(ctx context.Context, p Puzzle) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `INSERT INTO puzzles (id, prompt, answer, category, max_attempts, publish_day, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT DO NOTHING`,
		id, p.Prompt, p.Answer, p.Category, p.MaxAttempts, day(p.PublishDay), p.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateDay
	}
	return nil
}

const puzzleColumns = `id, prompt, answer, category, max_attempts, publish_day, created_at`

// FindByID fetches a puzzle by primary key.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Puzzle, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return Puzzle{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+puzzleColumns+` FROM puzzles WHERE id = $1`, pid)
	return scanPuzzle(row)
}

// FindForDay fetches the puzzle published for the given UTC day.
func (r *PostgresRepository) FindForDay(ctx context.Context, d time.Time) (Puzzle, error) {
	row := r.db.QueryRow(ctx, `SELECT `+puzzleColumns+` FROM puzzles WHERE publish_day = $1`, day(d))
	return scanPuzzle(row)
}

func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func scanPuzzle(row pgx.Row) (Puzzle, error) {
	var (
		id uuid.UUID
		p  Puzzle
	)
	if err := row.Scan(&id, &p.Prompt, &p.Answer, &p.Category, &p.MaxAttempts, &p.PublishDay, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Puzzle{}, ErrNotFound
		}
		return Puzzle{}, err
	}
	p.ID = id.String()
	p.PublishDay = day(p.PublishDay)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
