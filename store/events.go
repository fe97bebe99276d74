// Package store holds the SQLite-backed storage collaborators: the event
// store (validated timeline events, queryable by date range and type) and
// the content-addressed attachment store (SHA-256 dedup with per-event
// reference rows).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/casefile/dbopen"
	"github.com/hazyhaar/casefile/timeline"
)

// EventSchema for the events table. Call Events.Init() or apply manually.
// The full event rides as a JSON blob; event_date and event_type are
// denormalized for indexed range queries.
const EventSchema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	event_date INTEGER,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date) WHERE event_date IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
`

// Events persists validated timeline events. Writes are UPSERTs by event
// ID, so repeated correlation passes over the same event serialize as
// last-writer-wins.
type Events struct {
	db *sql.DB
}

// NewEvents wraps an open database connection.
func NewEvents(db *sql.DB) *Events {
	return &Events{db: db}
}

// Init creates the events table if it doesn't exist.
func (s *Events) Init() error {
	_, err := s.db.Exec(EventSchema)
	return err
}

// Put validates and persists an event, replacing any previous row with the
// same ID.
func (s *Events) Put(ctx context.Context, ev *timeline.Event) error {
	if err := timeline.Validate(ev); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("store: marshal event %s: %w", ev.ID, err)
	}

	var eventDate sql.NullInt64
	if ev.Temporal.EventDate != nil {
		eventDate = sql.NullInt64{Int64: ev.Temporal.EventDate.UnixMilli(), Valid: true}
	}

	_, err = dbopen.Exec(ctx, s.db, `
		INSERT INTO events (id, event_date, event_type, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_date = excluded.event_date,
			event_type = excluded.event_type,
			payload    = excluded.payload,
			updated_at = excluded.updated_at`,
		ev.ID, eventDate, ev.Info.Type, string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: put event %s: %w", ev.ID, err)
	}
	return nil
}

// Get returns one event by ID, or sql.ErrNoRows.
func (s *Events) Get(ctx context.Context, id string) (*timeline.Event, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM events WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return nil, err
	}
	var ev timeline.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return nil, fmt.Errorf("store: unmarshal event %s: %w", id, err)
	}
	return &ev, nil
}

// Filter narrows a Query. Nil bounds are open; both bounds are inclusive.
// Undated events never match a date-bounded filter.
type Filter struct {
	Start *time.Time
	End   *time.Time
	Type  string
}

// Query returns events matching the filter, ordered by event date
// ascending with undated events last.
func (s *Events) Query(ctx context.Context, f Filter) ([]*timeline.Event, error) {
	q := `SELECT payload FROM events WHERE 1=1`
	var args []any
	if f.Start != nil {
		q += ` AND event_date >= ?`
		args = append(args, f.Start.UnixMilli())
	}
	if f.End != nil {
		q += ` AND event_date <= ?`
		args = append(args, f.End.UnixMilli())
	}
	if f.Type != "" {
		q += ` AND event_type = ?`
		args = append(args, f.Type)
	}
	q += ` ORDER BY event_date IS NULL, event_date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	var out []*timeline.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		var ev timeline.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("store: unmarshal event: %w", err)
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}

// EventStats aggregates the event table.
type EventStats struct {
	Total   int            `json:"total"`
	Dated   int            `json:"dated"`
	ByType  map[string]int `json:"by_type"`
	MinDate *time.Time     `json:"min_date,omitempty"`
	MaxDate *time.Time     `json:"max_date,omitempty"`
}

// Stats aggregates counts and the date range of the stored events.
func (s *Events) Stats(ctx context.Context) (EventStats, error) {
	stats := EventStats{ByType: map[string]int{}}

	var minMs, maxMs sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(event_date), MIN(event_date), MAX(event_date) FROM events`).
		Scan(&stats.Total, &stats.Dated, &minMs, &maxMs)
	if err != nil {
		return stats, fmt.Errorf("store: event stats: %w", err)
	}
	if minMs.Valid {
		t := time.UnixMilli(minMs.Int64).UTC()
		stats.MinDate = &t
	}
	if maxMs.Valid {
		t := time.UnixMilli(maxMs.Int64).UTC()
		stats.MaxDate = &t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT event_type, COUNT(*) FROM events GROUP BY event_type`)
	if err != nil {
		return stats, fmt.Errorf("store: event stats by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return stats, fmt.Errorf("store: scan type count: %w", err)
		}
		stats.ByType[typ] = n
	}
	return stats, rows.Err()
}
