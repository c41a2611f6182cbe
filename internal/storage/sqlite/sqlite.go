// Package sqlite provides a SQLite-backed implementation of the storage
// interfaces.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/ehallmark/soroban-escrow-demo/internal/storage"
	"github.com/shopspring/decimal"
)

// Ensure Store implements both storage interfaces.
var (
	_ storage.EscrowStore   = (*Store)(nil)
	_ storage.RetainerStore = (*Store)(nil)
)

// Store implements storage.EscrowStore and storage.RetainerStore using
// SQLite. Each multi-record write runs in a single transaction.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// parseAmount converts a stored TEXT amount back into a decimal.
func parseAmount(text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("corrupt stored amount %q: %w", text, err)
	}
	return d, nil
}
