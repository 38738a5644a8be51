package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

type PostgresAdapter struct {
	conn *pgx.Conn
}

// NewPostgresAdapter connects to the database and ensures the kv table
// exists. The caller is responsible for calling Close() on the adapter.
func NewPostgresAdapter(ctx context.Context, connStr string) (Adapter, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &PostgresAdapter{
		conn: conn,
	}, nil
}

func (a *PostgresAdapter) Read(ctx context.Context, key string) (string, error) {
	q := `
	SELECT value FROM kv WHERE key = $1;
	`
	var value string
	if err := a.conn.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if err == pgx.ErrNoRows {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to scan value: %v", err)
	}

	return value, nil
}

func (a *PostgresAdapter) Write(ctx context.Context, key string, value string) error {
	q := `
	INSERT INTO kv (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET value = $2;
	`
	if _, err := a.conn.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("failed to insert value: %v", err)
	}

	return nil
}

func (a *PostgresAdapter) Close(ctx context.Context) error {
	return a.conn.Close(ctx)
}
