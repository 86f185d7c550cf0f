package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/user"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when an insert collides on the email
// unique constraint.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository implements outbound.UserRepository on PostgreSQL.
type UserRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewUserRepository creates a PostgreSQL user repository.
func NewUserRepository(pool *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{pool: pool, logger: logger}
}

const userColumns = `id, email, name, password_hash, is_active, preferences,
	created_at, updated_at, last_login_at`

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	prefs, err := json.Marshal(u.Preferences())
	if err != nil {
		return fmt.Errorf("marshal user preferences: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID(), u.Email(), u.Name(), u.PasswordHash(), u.IsActive(), prefs,
		u.CreatedAt(), u.UpdatedAt(), u.LastLoginAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a user row.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	prefs, err := json.Marshal(u.Preferences())
	if err != nil {
		return fmt.Errorf("marshal user preferences: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			name = $2, password_hash = $3, is_active = $4,
			preferences = $5, updated_at = $6, last_login_at = $7
		WHERE id = $1`,
		u.ID(), u.Name(), u.PasswordHash(), u.IsActive(), prefs,
		u.UpdatedAt(), u.LastLoginAt(),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindByID loads a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail loads a user by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

// Exists reports whether a user row exists.
func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// UpdateLastLogin stamps the user's last login time.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var (
		id           uuid.UUID
		email        string
		name         string
		passwordHash string
		isActive     bool
		prefsJSON    []byte
		createdAt    time.Time
		updatedAt    time.Time
		lastLoginAt  *time.Time
	)

	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&id, &email, &name, &passwordHash, &isActive, &prefsJSON,
		&createdAt, &updatedAt, &lastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	prefs := &user.Preferences{}
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, prefs); err != nil {
			return nil, fmt.Errorf("unmarshal user preferences: %w", err)
		}
	}

	return user.Rehydrate(id, email, name, passwordHash, isActive, prefs, createdAt, updatedAt, lastLoginAt), nil
}
