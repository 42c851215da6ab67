package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ceasar/auth-service/internal/core/domain"
)

func (s *Store) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	perms, err := json.Marshal(permissionsOrEmpty(user.Permissions))
	if err != nil {
		return nil, fmt.Errorf("encode permissions: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, permissions, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (username) DO NOTHING`,
		user.ID, user.Username, user.PasswordHash, string(perms), user.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert user: %w: %v", domain.ErrStoreUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert user: %w: %v", domain.ErrStoreUnavailable, err)
	}
	if n == 0 {
		return nil, domain.ErrUserExists
	}

	created := *user
	created.Permissions = permissionsOrEmpty(user.Permissions)
	return &created, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOne(ctx, `SELECT id, username, password_hash, permissions, created_at FROM users WHERE username = ?`, username)
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, `SELECT id, username, password_hash, permissions, created_at FROM users WHERE id = ?`, id)
}

// Delete stands in for the external account deletion flow.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w: %v", domain.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, query, arg string) (*domain.User, error) {
	var (
		u         domain.User
		perms     string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &perms, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w: %v", domain.ErrStoreUnavailable, err)
	}

	if err := json.Unmarshal([]byte(perms), &u.Permissions); err != nil {
		return nil, fmt.Errorf("decode permissions for %s: %w", u.ID, err)
	}
	u.Permissions = permissionsOrEmpty(u.Permissions)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

func permissionsOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}
