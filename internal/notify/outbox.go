// internal/notify/outbox.go
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Outbox queues alerts in a local SQLite table for a relay to pick up.
// Nothing in the monitor reads it back.
type Outbox struct {
	db *sql.DB
}

// OutboxEntry is one queued alert
type OutboxEntry struct {
	ID          int64
	Destination string
	Sender      string
	Text        string
	CreatedAt   time.Time
}

// NewOutbox opens or creates the outbox database
func NewOutbox(path string) (*Outbox, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Alerts of one tick are sent concurrently; serialize them on one connection
	db.SetMaxOpenConns(1)

	// Enable WAL mode so a relay can read while we write
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS outbox (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		destination TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_outbox_created_at ON outbox(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Outbox{db: db}, nil
}

// Close closes the database connection
func (o *Outbox) Close() error {
	return o.db.Close()
}

// Send queues the alert and returns its row id as status
func (o *Outbox) Send(ctx context.Context, destination, sender, text string) (string, error) {
	res, err := o.db.ExecContext(ctx, `
		INSERT INTO outbox (destination, sender, text) VALUES (?, ?, ?)
	`, destination, sender, text)
	if err != nil {
		return "", fmt.Errorf("%w: outbox insert: %v", ErrUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "queued", nil
	}
	return fmt.Sprintf("queued #%d", id), nil
}

// Recent returns the newest queued alerts, newest first
func (o *Outbox) Recent(ctx context.Context, limit int) ([]OutboxEntry, error) {
	rows, err := o.db.QueryContext(ctx, `
		SELECT id, destination, sender, text, created_at
		FROM outbox
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var createdStr string
		if err := rows.Scan(&e.ID, &e.Destination, &e.Sender, &e.Text, &createdStr); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
