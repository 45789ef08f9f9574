package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the idempotent DDL applied at boot. Statements use IF NOT
// EXISTS so repeated startups and multi-instance races are harmless.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        is_guest BOOLEAN NOT NULL DEFAULT TRUE,
        email TEXT,
        username TEXT,
        password_hash BYTEA,
        guest_token TEXT,
        device_id TEXT,
        ip_hash TEXT,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_guest_token_key ON users (guest_token) WHERE guest_token IS NOT NULL AND guest_token <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email) WHERE email IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_device_id_key ON users (device_id) WHERE device_id IS NOT NULL AND device_id <> ''`,
	`CREATE INDEX IF NOT EXISTS users_ip_hash_idx ON users (ip_hash)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
        user_id UUID PRIMARY KEY REFERENCES users (id),
        games_played INT NOT NULL DEFAULT 0,
        games_won INT NOT NULL DEFAULT 0,
        current_streak INT NOT NULL DEFAULT 0,
        max_streak INT NOT NULL DEFAULT 0,
        total_time_seconds BIGINT NOT NULL DEFAULT 0,
        last_played_day DATE,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS puzzles (
        id UUID PRIMARY KEY,
        prompt TEXT NOT NULL,
        answer TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT '',
        max_attempts INT NOT NULL DEFAULT 3,
        publish_day DATE NOT NULL UNIQUE,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS daily_attempts (
        id UUID PRIMARY KEY,
        user_id UUID NOT NULL REFERENCES users (id),
        puzzle_id UUID NOT NULL,
        day_key DATE NOT NULL,
        attempted_answer TEXT NOT NULL DEFAULT '',
        is_correct BOOLEAN NOT NULL DEFAULT FALSE,
        abandoned BOOLEAN NOT NULL DEFAULT FALSE,
        attempt_number INT NOT NULL DEFAULT 1,
        max_attempts INT NOT NULL DEFAULT 3,
        time_spent_seconds INT NOT NULL DEFAULT 0,
        attempted_at TIMESTAMPTZ NOT NULL,
        completed_at TIMESTAMPTZ
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS daily_attempts_final_key ON daily_attempts (user_id, day_key) WHERE is_correct OR abandoned`,
	`CREATE INDEX IF NOT EXISTS daily_attempts_user_idx ON daily_attempts (user_id, day_key)`,
}

// EnsureSchema applies the application schema to the connected database.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
