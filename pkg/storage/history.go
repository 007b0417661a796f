// Package storage persists the relay's delivery history in an embedded
// SQLite database, using modernc.org/sqlite for CGO-less builds.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store records webhook delivery attempts so recent sends can be reviewed
// after the fact.
type Store struct {
	dbPath string
	db     *sql.DB
}

// NewStore creates a new Store pointing to dbPath. Call Init() before using it.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// Init opens the SQLite database, configures pragmas, and ensures the
// schema exists.
func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	// Pragmas for durability and concurrency
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return fmt.Errorf("set WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		_ = db.Close()
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL;`); err != nil {
		_ = db.Close()
		return fmt.Errorf("set synchronous: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS deliveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			webhook_id TEXT NOT NULL,
			multipart INTEGER NOT NULL DEFAULT 0,
			status_code INTEGER NOT NULL DEFAULT 0,
			success INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_deliveries_created_at ON deliveries(created_at);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// DeliveryRecord is one webhook send attempt. The payload column keeps the
// JSON document (or the payload_json part of a multipart send) but never
// attachment bytes.
type DeliveryRecord struct {
	ID         int64
	WebhookID  string
	Multipart  bool
	StatusCode int
	Success    bool
	Error      string
	Payload    string
	CreatedAt  time.Time
}

// RecordDelivery appends a delivery attempt.
func (s *Store) RecordDelivery(rec DeliveryRecord) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO deliveries (webhook_id, multipart, status_code, success, error, payload, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.WebhookID, rec.Multipart, rec.StatusCode, rec.Success, rec.Error, rec.Payload, createdAt.UTC(),
	)
	return err
}

// RecentDeliveries returns up to limit attempts, newest first.
func (s *Store) RecentDeliveries(limit int) ([]DeliveryRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, webhook_id, multipart, status_code, success, error, payload, created_at
         FROM deliveries
         ORDER BY created_at DESC, id DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeliveryRecord
	for rows.Next() {
		var rec DeliveryRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.WebhookID,
			&rec.Multipart,
			&rec.StatusCode,
			&rec.Success,
			&rec.Error,
			&rec.Payload,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes everything but the newest keep records.
func (s *Store) Prune(keep int) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	if keep < 0 {
		keep = 0
	}
	_, err := s.db.Exec(
		`DELETE FROM deliveries
         WHERE id NOT IN (SELECT id FROM deliveries ORDER BY created_at DESC, id DESC LIMIT ?)`,
		keep,
	)
	return err
}
