package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

type SQLiteAdapter struct {
	db *sql.DB
}

func NewSQLiteAdapter(ctx context.Context, path string) (Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &SQLiteAdapter{
		db: db,
	}, nil
}

func (a *SQLiteAdapter) Read(ctx context.Context, key string) (string, error) {
	q := `
	SELECT value FROM kv WHERE key = $1;
	`
	var value string
	if err := a.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to scan value: %v", err)
	}

	return value, nil
}

func (a *SQLiteAdapter) Write(ctx context.Context, key string, value string) error {
	q := `
	INSERT OR REPLACE INTO kv (key, value)
	VALUES (?, ?);
	`
	if _, err := a.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("failed to insert value: %v", err)
	}

	return nil
}

func (a *SQLiteAdapter) Close(ctx context.Context) error {
	return a.db.Close()
}
