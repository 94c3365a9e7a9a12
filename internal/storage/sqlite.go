package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultTable is the table used when no table name is configured.
const DefaultTable = "speedlaunch_kv"

// SQLiteStore keeps entries in a two-column SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	table  string
	dbPath string
	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the table exists.
func NewSQLiteStore(dbPath, table string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, newError("sqlite", "open", "", errors.New("database path is required"))
	}
	if table == "" {
		table = DefaultTable
	}

	// Validate table name (prevent SQL injection)
	if !isValidIdentifier(table) {
		return nil, newError("sqlite", "open", "", fmt.Errorf("invalid table name %q", table))
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, newError("sqlite", "open", "", fmt.Errorf("failed to open database: %w", err))
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, newError("sqlite", "open", "", fmt.Errorf("failed to connect: %w", err))
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`, table)
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, newError("sqlite", "open", "", fmt.Errorf("failed to create table: %w", err))
	}

	return &SQLiteStore{
		db:     db,
		table:  table,
		dbPath: dbPath,
	}, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = ?", s.table)

	var value string
	err := s.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, newError("sqlite", "get", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, s.table)

	if _, err := s.db.Exec(query, key, value); err != nil {
		return newError("sqlite", "set", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", s.table)
	if _, err := s.db.Exec(query, key); err != nil {
		return newError("sqlite", "delete", key, err)
	}
	return nil
}

// Close releases the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func isValidIdentifier(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for i, c := range name {
		if i == 0 {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_') {
				return false
			}
		} else {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
				return false
			}
		}
	}
	return true
}
