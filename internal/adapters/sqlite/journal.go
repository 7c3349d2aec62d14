package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anderlopz/parkpass/internal/core/domain"
)

// Journal implements ports.TripJournal on a local SQLite file. The device
// keeps its own trip and event history; nothing here is authoritative for the
// backend.
type Journal struct {
	db *sql.DB
}

// Open opens (and migrates) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL,
		marker_kind TEXT NOT NULL,
		marker_id   INTEGER NOT NULL,
		dest_lat    REAL NOT NULL,
		dest_lon    REAL NOT NULL,
		assignment  TEXT,
		started_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS session_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		type       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		time       TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_session ON session_events(session_id);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// RecordSession upserts a session's terminal state.
func (j *Journal) RecordSession(ctx context.Context, s *domain.ReservationSession) error {
	var assignment any
	if s.Assignment != nil {
		data, err := json.Marshal(s.Assignment)
		if err != nil {
			return fmt.Errorf("marshal assignment: %w", err)
		}
		assignment = string(data)
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, status, marker_kind, marker_id, dest_lat, dest_lon, assignment, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			assignment = excluded.assignment,
			updated_at = excluded.updated_at`,
		s.ID, string(s.Status), string(s.Marker.Kind), s.Marker.ID,
		s.Destination.Lat, s.Destination.Lon, assignment, s.StartedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// RecordEvent appends one event to the journal.
func (j *Journal) RecordEvent(ctx context.Context, ev *domain.SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO session_events (session_id, type, payload, time) VALUES (?, ?, ?, ?)`,
		ev.SessionID, string(ev.Type), string(payload), ev.Time,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions, newest first.
func (j *Journal) ListSessions(ctx context.Context, limit int) ([]domain.ReservationSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, status, marker_kind, marker_id, dest_lat, dest_lon, assignment, started_at, updated_at
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ReservationSession
	for rows.Next() {
		var (
			s          domain.ReservationSession
			status     string
			kind       string
			assignment sql.NullString
			started    time.Time
			updated    time.Time
		)
		if err := rows.Scan(&s.ID, &status, &kind, &s.Marker.ID,
			&s.Destination.Lat, &s.Destination.Lon, &assignment, &started, &updated); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Status = domain.SessionStatus(status)
		s.Marker.Kind = domain.MarkerKind(kind)
		s.StartedAt = started
		s.UpdatedAt = updated
		if assignment.Valid {
			var a domain.SpotAssignment
			if err := json.Unmarshal([]byte(assignment.String), &a); err == nil {
				s.Assignment = &a
			}
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListEvents returns all journaled events for a session, oldest first.
func (j *Journal) ListEvents(ctx context.Context, sessionID string) ([]domain.SessionEvent, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT payload FROM session_events WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.SessionEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev domain.SessionEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
