// Package store persists the small pieces of client state that the
// browser build kept in local storage: the token bundle and the user
// preferences blob, each under a fixed key.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	KeyTokens      = "voxvid_tokens"
	KeyPreferences = "voxvid_prefs"
)

type Store struct {
	db *sql.DB
}

func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, "client.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) initDB() error {
	query := `
    CREATE TABLE IF NOT EXISTS local_state (
        key   TEXT PRIMARY KEY,
        value TEXT NOT NULL
    );`
	_, err := s.db.Exec(query)
	return err
}

// Get unmarshals the value stored under key into dst. Returns false when
// the key is absent; a corrupt value is an error, not a zero result.
func (s *Store) Get(key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM local_state WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("corrupt value under %q: %w", key, err)
	}
	return true, nil
}

// Set marshals value as JSON and stores it under key, replacing any
// previous value.
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO local_state (key, value) VALUES (?, ?)`, key, string(raw))
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM local_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
