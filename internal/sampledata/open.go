package sampledata

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite creates a private in-memory SQLite database holding the seeded
// steel-wheels data. Connections opened from the returned pool share it.
func OpenSQLite(ctx context.Context) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:steelwheels-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The in-memory database lives as long as one connection stays open.
	db.SetConnMaxIdleTime(0)
	db.SetMaxIdleConns(2)

	if err := Seed(ctx, db, sq.Question); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
