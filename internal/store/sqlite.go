package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// Document keys for the three independent durable records plus settings.
const (
	keyBlockedIPs      = "blocked_ips"
	keyAuditLog        = "audit_log"
	keyCustomPlaybooks = "custom_playbooks"
	keySettings        = "settings"
)

// SQLiteStore persists dashboard state as JSON documents in an embedded
// database. Every accessor fails soft: corrupt or missing rows yield the
// empty default, never an error that would block startup.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the state database at path
func Open(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	// Single writer; the registry and audit log already serialize their
	// mutations.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS app_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// get loads one JSON document into out; missing or corrupt rows leave out
// untouched and report false.
func (s *SQLiteStore) get(key string, out interface{}) bool {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.logger.Warn("Failed to load state document, using default", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		s.logger.Warn("Corrupt state document, using default", "key", key, "error", err)
		return false
	}
	return true
}

// set writes one JSON document
func (s *SQLiteStore) set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	query := `
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// LoadBlockedIPs returns the persisted blocked-IP set, or empty on any failure
func (s *SQLiteStore) LoadBlockedIPs() []model.BlockedIP {
	var ips []model.BlockedIP
	s.get(keyBlockedIPs, &ips)
	return ips
}

// SaveBlockedIPs persists the blocked-IP set
func (s *SQLiteStore) SaveBlockedIPs(ips []model.BlockedIP) error {
	return s.set(keyBlockedIPs, ips)
}

// LoadAuditLog returns the persisted audit log, newest first, or empty
func (s *SQLiteStore) LoadAuditLog() []model.LogEntry {
	var entries []model.LogEntry
	s.get(keyAuditLog, &entries)
	return entries
}

// SaveAuditLog persists the audit log snapshot, newest first
func (s *SQLiteStore) SaveAuditLog(entries []model.LogEntry) error {
	return s.set(keyAuditLog, entries)
}

// LoadCustomPlaybooks returns the persisted custom playbook catalog, or empty
func (s *SQLiteStore) LoadCustomPlaybooks() []model.Playbook {
	var playbooks []model.Playbook
	s.get(keyCustomPlaybooks, &playbooks)
	return playbooks
}

// SaveCustomPlaybooks persists the custom playbook catalog
func (s *SQLiteStore) SaveCustomPlaybooks(playbooks []model.Playbook) error {
	return s.set(keyCustomPlaybooks, playbooks)
}

// LoadSettings returns the persisted operator settings, or the documented
// defaults when nothing usable is stored.
func (s *SQLiteStore) LoadSettings() model.Settings {
	settings := model.DefaultSettings()
	s.get(keySettings, &settings)
	return settings
}

// SaveSettings persists the operator settings
func (s *SQLiteStore) SaveSettings(settings model.Settings) error {
	return s.set(keySettings, settings)
}
