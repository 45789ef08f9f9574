package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no user matched the lookup key.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateUser indicates a conditional insert lost a uniqueness race
	// (guest token or device id already taken). Callers recover by looking
	// the winner up instead of failing the request.
	ErrDuplicateUser = errors.New("user already exists")
)

// Repository persists users. Implementations must make Create an atomic
// insert-if-absent so concurrent provisioning of the same client cannot
// produce duplicate accounts.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByDeviceID(ctx context.Context, deviceID string) (User, error)
	FindByGuestToken(ctx context.Context, token string) (User, error)
	FindByIPHash(ctx context.Context, ipHash string) (User, error)
	UpgradeToAccount(ctx context.Context, id, email, username string, passwordHash []byte) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. Uniqueness on guest token and device id is
// enforced by partial unique indexes; a conflicting row makes the insert a
// no-op and Create reports ErrDuplicateUser.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `INSERT INTO users (id, is_guest, email, username, password_hash, guest_token, device_id, ip_hash, created_at)
        VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)
        ON CONFLICT DO NOTHING`,
		userID, user.IsGuest, user.Email, user.Username, user.PasswordHash,
		user.GuestToken, user.DeviceID, user.IPHash, user.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateUser
	}
	return nil
}

const userColumns = `id, is_guest, COALESCE(email, ''), COALESCE(username, ''), password_hash, COALESCE(guest_token, ''), COALESCE(device_id, ''), COALESCE(ip_hash, ''), created_at`

// FindByID fetches a user by primary key. A malformed id is treated as a
// miss: the local fallback signal is client-asserted and must not error the
// request.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// FindByDeviceID fetches the user bound to a device identifier.
func (r *PostgresRepository) FindByDeviceID(ctx context.Context, deviceID string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE device_id = $1 ORDER BY created_at LIMIT 1`, deviceID)
	return scanUser(row)
}

// FindByGuestToken fetches a user by its server-issued guest token.
func (r *PostgresRepository) FindByGuestToken(ctx context.Context, token string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE guest_token = $1`, token)
	return scanUser(row)
}

// FindByIPHash fetches the earliest user recorded under a hashed IP.
func (r *PostgresRepository) FindByIPHash(ctx context.Context, ipHash string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE ip_hash = $1 ORDER BY created_at LIMIT 1`, ipHash)
	return scanUser(row)
}

// UpgradeToAccount converts a guest into a registered account.
func (r *PostgresRepository) UpgradeToAccount(ctx context.Context, id, email, username string, passwordHash []byte) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET is_guest = FALSE, email = $1, username = NULLIF($2, ''), password_hash = $3
        WHERE id = $4 AND is_guest`, email, username, passwordHash, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.IsGuest, &user.Email, &user.Username, &user.PasswordHash,
		&user.GuestToken, &user.DeviceID, &user.IPHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
