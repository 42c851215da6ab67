// Package db opens the credential store named by a connection string.
package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ceasar/auth-service/internal/core/ports"
	"github.com/ceasar/auth-service/internal/infrastructure/db/memory"
	"github.com/ceasar/auth-service/internal/infrastructure/db/mongo"
	"github.com/ceasar/auth-service/internal/infrastructure/db/postgres"
	"github.com/ceasar/auth-service/internal/infrastructure/db/sqlite"
)

// Store is a credential store with lifecycle hooks for readiness and shutdown.
type Store interface {
	ports.CredentialStore
	Ping(ctx context.Context) error
	Close() error
}

// Open selects a driver by URI scheme:
//
//	mongodb://, mongodb+srv://   MongoDB (database from the database argument)
//	postgres://, postgresql://   PostgreSQL
//	sqlite:///path/to/file.db    SQLite file
//	memory://                    in-process map
func Open(ctx context.Context, uri, database string) (Store, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("store uri: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		s, err := mongo.Open(ctx, mongo.Config{URI: uri, Database: database})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql":
		s, err := postgres.Open(ctx, uri)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		path := strings.TrimPrefix(uri, u.Scheme+"://")
		if path == "" {
			return nil, fmt.Errorf("store uri: sqlite path is empty")
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return memory.NewCredentialStore(), nil
	default:
		return nil, fmt.Errorf("store uri: unsupported scheme %q", u.Scheme)
	}
}
