// Package memory is an in-process credential store for development and tests.
// Records are lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/ceasar/auth-service/internal/core/domain"
)

type CredentialStore struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

func (s *CredentialStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	s.byID[user.ID] = clone(user)
	s.byUsername[user.Username] = user.ID
	return clone(user), nil
}

func (s *CredentialStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *CredentialStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

// Delete removes a record. Account deletion is owned by an external flow;
// this exists so that flow can be simulated.
func (s *CredentialStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(s.byUsername, u.Username)
	delete(s.byID, id)
	return nil
}

func (s *CredentialStore) Ping(context.Context) error { return nil }
func (s *CredentialStore) Close() error               { return nil }

func clone(u *domain.User) *domain.User {
	c := *u
	c.Permissions = append([]string(nil), u.Permissions...)
	return &c
}
