package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ceasar/auth-service/internal/core/domain"
)

// uniqueViolation is the SQLSTATE of a unique constraint failure.
const uniqueViolation = "23505"

// CredentialStore implements ports.CredentialStore on the users table.
type CredentialStore struct {
	pool *pgxpool.Pool
}

func NewCredentialStore(pool *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{pool: pool}
}

// Create relies on the unique username constraint: a losing concurrent
// insert returns no row and is reported as domain.ErrUserExists.
func (r *CredentialStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query :=
		`INSERT INTO users (id, username, password_hash, permissions, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO NOTHING
		 RETURNING id
		 `

	var id string
	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Permissions, user.CreatedAt).Scan(&id)
	if err != nil {
		return nil, insertError(err)
	}

	created := *user
	return &created, nil
}

func (r *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx,
		`SELECT id, username, password_hash, permissions, created_at FROM users
		 WHERE username = $1
		 `, username)
}

func (r *CredentialStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx,
		`SELECT id, username, password_hash, permissions, created_at FROM users
		 WHERE id = $1
		 `, id)
}

func (r *CredentialStore) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	user := &domain.User{}
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Permissions, &user.CreatedAt)
	if err != nil {
		return nil, findError(err)
	}
	if user.Permissions == nil {
		user.Permissions = []string{}
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// insertError maps a failed insert. No returned row means ON CONFLICT
// skipped it; a unique violation can still surface on the id column.
func insertError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserExists
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrUserExists
	}
	return fmt.Errorf("insert user: %w: %v", domain.ErrStoreUnavailable, err)
}

func findError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return fmt.Errorf("find user: %w: %v", domain.ErrStoreUnavailable, err)
}

func (r *CredentialStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *CredentialStore) Close() error {
	r.pool.Close()
	return nil
}
