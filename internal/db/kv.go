package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Logical snapshot keys. Each holds one whole collection serialized as
// JSON; every mutation writes the affected collection back in full.
const (
	KeyUsers    = "users"
	KeyMessages = "messages"
	KeyGroups   = "groups"
	KeySettings = "settings"
)

// Get returns the blob stored under key, with ok=false when absent.
func (db *DB) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores the blob under key, replacing any previous value.
func (db *DB) Set(key string, value []byte) error {
	_, err := db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
