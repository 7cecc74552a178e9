package journal

import (
	"context"
	"database/sql"
	"time"
)

// Entry is one journal row.
type Entry struct {
	ID         int64
	Kind       string
	Title      string
	Message    string
	ActivePath string
	NodeCount  int
	CreatedAt  time.Time
}

// Repo reads and writes journal entries.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// Record inserts e and returns its id. A zero CreatedAt is set to now.
func (r *Repo) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO events(kind, title, message, active_path, node_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?);
	`, e.Kind, e.Title, e.Message, e.ActivePath, e.NodeCount, e.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Recent returns up to n entries, newest first.
func (r *Repo) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, kind, title, message, active_path, node_count, created_at
	FROM events ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Title, &e.Message, &e.ActivePath, &e.NodeCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of recorded entries.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}
