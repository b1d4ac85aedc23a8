package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout is fixed width so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// Entry is one recorded strobe.
type Entry struct {
	ID        int64
	EventID   string
	Device    string
	External  bool
	Provider  string
	Path      string
	Blocked   time.Duration
	Error     string
	CreatedAt time.Time
}

// OK reports whether the strobe was routed.
func (e Entry) OK() bool {
	return e.Error == ""
}

// SQLiteRepository stores entries in the strobe_history table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts e. A zero CreatedAt is set to now.
func (r *SQLiteRepository) Record(ctx context.Context, e Entry) error {
	if e.Device == "" {
		return ErrDeviceRequired
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO strobe_history
		 (event_id, device, external, provider, path, blocked_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID,
		e.Device,
		e.External,
		e.Provider,
		e.Path,
		e.Blocked.Milliseconds(),
		e.Error,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting strobe history: %w", err)
	}
	return nil
}

// Recent returns the latest entries for device, newest first. limit
// defaults to 50 and is capped at 200.
func (r *SQLiteRepository) Recent(ctx context.Context, device string, limit int) ([]Entry, error) {
	if device == "" {
		return nil, ErrDeviceRequired
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, device, external, provider, path, blocked_ms, error, created_at
		 FROM strobe_history
		 WHERE device = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		device, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying strobe history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var blockedMS int64
		var createdAt string
		if err := rows.Scan(&e.ID, &e.EventID, &e.Device, &e.External, &e.Provider, &e.Path, &blockedMS, &e.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning strobe history: %w", err)
		}
		e.Blocked = time.Duration(blockedMS) * time.Millisecond
		e.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating strobe history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than retention and returns how many went.
func (r *SQLiteRepository) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)
	result, err := r.db.ExecContext(ctx, "DELETE FROM strobe_history WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning strobe history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
