package handoff

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore keeps suites in PostgreSQL, for hosts where the extension and
// the application do not share a filesystem.
type PostgresStore struct {
	pool  *sql.DB
	suite string
}

// NewPostgresStore connects to databaseURL and runs the schema migration.
func NewPostgresStore(ctx context.Context, databaseURL, suite string) (*PostgresStore, error) {
	pool, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool.SetMaxOpenConns(5)
	pool.SetMaxIdleConns(2)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.ExecContext(ctx, postgresMigrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresStore{pool: pool, suite: suite}, nil
}

const postgresMigrationSQL = `
CREATE TABLE IF NOT EXISTS share_defaults (
    suite       TEXT NOT NULL,
    key         TEXT NOT NULL,
    value       JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (suite, key)
);
`

func (p *PostgresStore) Set(ctx context.Context, key string, value map[string]any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = p.pool.ExecContext(ctx,
		`INSERT INTO share_defaults (suite, key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (suite, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		p.suite, key, data,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) (map[string]any, error) {
	var data []byte
	err := p.pool.QueryRowContext(ctx,
		`SELECT value FROM share_defaults WHERE suite = $1 AND key = $2`, p.suite, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", p.suite, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

func (p *PostgresStore) Remove(ctx context.Context, key string) error {
	if _, err := p.pool.ExecContext(ctx,
		`DELETE FROM share_defaults WHERE suite = $1 AND key = $2`, p.suite, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.pool.Close()
}
