package fixtures

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OpenMemory returns an in-memory SQLite store with fixtures applied up to
// and including version last. The pool is pinned to one connection because
// every :memory: connection is a separate database.
func OpenMemory(last string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ApplyUpTo(db, last); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
