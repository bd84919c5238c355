package db

import (
	"context"
	"database/sql"
	_ "embed"
	"io"
	"log/slog"
)

//go:embed migrations/000001_init.up.sql
var initSchema string

// NewTestDB creates a DB instance for testing with a no-op logger
// This is only for use in tests where logging output is not needed
func NewTestDB(sqlDB *sql.DB) *DB {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &DB{
		DB:     sqlDB,
		logger: logger,
	}
}

// ApplySchema creates the tables used by tests. Statements are idempotent.
func ApplySchema(ctx context.Context, q Querier) error {
	_, err := q.ExecContext(ctx, initSchema)
	return err
}
