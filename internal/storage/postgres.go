package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore keeps the link in a key/value row in PostgreSQL.
type PostgresStore struct {
	db  *sql.DB
	key string
}

// NewPostgresStore connects to the database and creates the state table if
// needed.
func NewPostgresStore(ctx context.Context, connectionString, key string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		key: key,
	}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (ps *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS newsbot_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`

	if _, err := ps.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LastLink returns the stored link for the store key.
func (ps *PostgresStore) LastLink(ctx context.Context) (string, bool, error) {
	var link string
	query := `SELECT value FROM newsbot_state WHERE key = $1`
	err := ps.db.QueryRowContext(ctx, query, ps.key).Scan(&link)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state: %w", err)
	}
	if link == "" {
		return "", false, nil
	}
	return link, true, nil
}

// SaveLink upserts the link for the store key.
func (ps *PostgresStore) SaveLink(ctx context.Context, link string) error {
	query := `
		INSERT INTO newsbot_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := ps.db.ExecContext(ctx, query, ps.key, link); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (ps *PostgresStore) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

var _ StateStore = (*PostgresStore)(nil)
