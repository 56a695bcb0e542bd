package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/vidproxy/internal/kv"
)

const schema = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		namespace  TEXT        NOT NULL,
		id         TEXT        NOT NULL,
		value      TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, id)
	)
`

// PostgresStore is a PostgreSQL implementation of kv.Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed key-value store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the kv_entries table when it does not exist yet.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)

	return err
}

func (p *PostgresStore) Get(ctx context.Context, key kv.Key) (string, error) {
	query := `
		SELECT value
		FROM kv_entries
		WHERE namespace = $1 AND id = $2
	`

	var value string

	err := p.pool.QueryRow(ctx, query, key.Namespace, key.ID).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", kv.ErrNotFound
		}

		return "", err
	}

	return value, nil
}

func (p *PostgresStore) Set(ctx context.Context, key kv.Key, value string) error {
	query := `
		INSERT INTO kv_entries (namespace, id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, id) DO UPDATE SET value = EXCLUDED.value
	`

	_, err := p.pool.Exec(ctx, query, key.Namespace, key.ID, value)

	return err
}

func (p *PostgresStore) SetIfAbsent(ctx context.Context, key kv.Key, value string) (bool, error) {
	query := `
		INSERT INTO kv_entries (namespace, id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, id) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query, key.Namespace, key.ID, value)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ kv.Store = (*PostgresStore)(nil)
