// Package handoff persists the finished share for the consuming application:
// a key/value suite per app group in which the last write wins.
package handoff

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store.Get when the key is absent.
var ErrNotFound = errors.New("not found")

// Store is a key/value suite. Set must be durable before it returns.
type Store interface {
	Set(ctx context.Context, key string, value map[string]any) error
	Get(ctx context.Context, key string) (map[string]any, error)
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open creates the store for suite on the named driver.
func Open(ctx context.Context, driver, dsn, suite string) (Store, error) {
	if suite == "" {
		return nil, errors.New("handoff: suite name is required")
	}
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(suite), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, dsn, suite)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn, suite)
	default:
		return nil, fmt.Errorf("handoff: unknown driver %q", driver)
	}
}
