package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"route-analyzer/internal/ports"
)

// Postgres backed persistence for pair caches, for deployments sharing
// one cache across machines. Schema initialization lives in cmd/dbtool.
type PostgresBackend struct {
	DB *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{DB: db}
}

// InitSchema creates the cache tables if they do not exist.
func (p *PostgresBackend) InitSchema(ctx context.Context) error {
	if p.DB == nil {
		return errors.New("init cache schema: db is nil")
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init cache schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS distance_cache (
			pair_key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS geometry_cache (
			pair_key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init cache schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init cache schema: commit tx: %w", err)
	}
	return nil
}

// Load fetches all persisted entries of one kind.
func (p *PostgresBackend) Load(ctx context.Context, kind ports.CacheKind) (map[string]string, error) {
	if p.DB == nil {
		return nil, errors.New("cache backend: db is nil")
	}

	table, err := kindTable(kind)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}

	q := fmt.Sprintf(`SELECT pair_key, value FROM %s;`, table)
	rows, err := p.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load cache: query %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("load cache: scan rows: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load cache: row iteration: %w", err)
	}

	return out, nil
}

// Save upserts the given entries of one kind in a single transaction.
func (p *PostgresBackend) Save(ctx context.Context, kind ports.CacheKind, entries map[string]string) error {
	if p.DB == nil {
		return errors.New("cache backend: db is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	table, err := kindTable(kind)
	if err != nil {
		return fmt.Errorf("save cache: %w", err)
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := fmt.Sprintf(`
	INSERT INTO %s (pair_key, value)
	VALUES ($1, $2)
	ON CONFLICT (pair_key) DO UPDATE SET value = EXCLUDED.value;
	`, table)

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("save cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for key, value := range entries {
		if key == "" {
			return fmt.Errorf("save cache: empty pair key")
		}
		if _, err := stmt.ExecContext(ctx, key, value); err != nil {
			return fmt.Errorf("save cache key=%q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save cache commit: %w", err)
	}
	return nil
}
