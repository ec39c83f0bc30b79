// Package store keeps page result history in SQLite. A Store is also a
// sink, so a batch run can record into it directly.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

// Store is the result history handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := openDB(path, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// Save inserts or replaces a page result. A missing ID is assigned.
func (s *Store) Save(ctx context.Context, r *result.PageTestResult) error {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("store: new id: %w", err)
		}
		r.ID = id.String()
	}
	body, err := result.MarshalPage(r)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", r.ID, err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO page_results
			(id, url, platform, passed, critical_count, warning_count, degraded, error, started_at, duration_ms, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.URL, r.Platform, boolInt(r.Passed), r.CriticalCount(), r.WarningCount(),
		boolInt(r.Degraded), r.Error, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(), string(body),
	)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the result with id, or nil if there is none.
func (s *Store) Get(ctx context.Context, id string) (*result.PageTestResult, error) {
	var body string
	err := s.DB.QueryRowContext(ctx, `SELECT body FROM page_results WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return result.UnmarshalPage([]byte(body))
}

// Query filters Recent. Zero values mean no filter; Limit defaults to 50.
type Query struct {
	URL        string
	FailedOnly bool
	Since      time.Time
	Limit      int
}

// Recent returns results newest first.
func (s *Store) Recent(ctx context.Context, q Query) ([]*result.PageTestResult, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	query := `SELECT body FROM page_results WHERE 1=1`
	var args []any
	if q.URL != "" {
		query += ` AND url = ?`
		args = append(args, q.URL)
	}
	if q.FailedOnly {
		query += ` AND passed = 0`
	}
	if !q.Since.IsZero() {
		query += ` AND started_at >= ?`
		args = append(args, q.Since.UnixMilli())
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var out []*result.PageTestResult
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		r, err := result.UnmarshalPage([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("store: recent decode: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SummaryRecord is a stored batch summary.
type SummaryRecord struct {
	result.Summary
	CreatedAt time.Time `json:"created_at"`
}

// SaveSummary records one batch summary.
func (s *Store) SaveSummary(ctx context.Context, sum result.Summary) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO batch_summaries (total, passed, failed, created_at) VALUES (?, ?, ?, ?)`,
		sum.Total, sum.Passed, sum.Failed, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: save summary: %w", err)
	}
	return nil
}

// Summaries returns the latest batch summaries, newest first.
func (s *Store) Summaries(ctx context.Context, limit int) ([]SummaryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT total, passed, failed, created_at FROM batch_summaries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: summaries: %w", err)
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		var ms int64
		if err := rows.Scan(&rec.Total, &rec.Passed, &rec.Failed, &ms); err != nil {
			return nil, fmt.Errorf("store: summaries scan: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(ms)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Send implements sink.Sink.
func (s *Store) Send(ctx context.Context, r *result.PageTestResult) error { return s.Save(ctx, r) }

// SendSummary implements sink.Sink.
func (s *Store) SendSummary(ctx context.Context, sum result.Summary) error {
	return s.SaveSummary(ctx, sum)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
