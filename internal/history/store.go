package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/oss-sentinel/sentinel/internal/domain"
)

// Store is the append-only probe log. One monitor process writes;
// short-lived query processes read the same file concurrently, which is
// why WAL mode is enabled.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database for the monitor and
// initializes the schema. Safe to call on every startup.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	// WAL lets the operator CLI read while the monitor writes.
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA synchronous=NORMAL")

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenRead opens the database for querying only. It fails with
// ErrNotInitialized when the file has never been created, so callers can
// tell "no data yet" apart from "no matching rows".
func OpenRead(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotInitialized)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL,
        service_name TEXT NOT NULL,
        url TEXT NOT NULL,
        status TEXT NOT NULL,
        status_code INTEGER,
        response_time REAL,
        details TEXT
    );

    CREATE INDEX IF NOT EXISTS idx_history_service_id ON history(service_name, id);
    CREATE INDEX IF NOT EXISTS idx_history_status_ts ON history(status, timestamp);
    `
	if _, err := s.db.Exec(schema); err != nil {
		return &StorageError{Op: "init schema", Err: err}
	}
	return nil
}

// Append persists one outcome. Outcomes are immutable once stored; there
// are no updates or deletes.
func (s *Store) Append(ctx context.Context, o *domain.ProbeOutcome) error {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO history (timestamp, service_name, url, status, status_code, response_time, details)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.Timestamp.UTC(),
		o.ServiceName,
		o.URL,
		string(o.Status),
		o.StatusCode,
		o.ResponseTime,
		o.Details,
	)
	if err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	if id, err := res.LastInsertId(); err == nil {
		o.ID = id
	}
	return nil
}

// RecentLogs returns up to limit outcomes across all services, newest
// first. The id tie-break keeps equal timestamps in insertion order.
func (s *Store) RecentLogs(ctx context.Context, limit int) ([]domain.ProbeOutcome, error) {
	return s.queryOutcomes(ctx, `
        SELECT id, timestamp, service_name, url, status, status_code, response_time, details
        FROM history
        ORDER BY timestamp DESC, id DESC
        LIMIT ?`, limit)
}

// LatestPerService returns the most recently appended outcome for each
// distinct service, ordered by service name. "Most recent" is decided by
// row id, so equal timestamps resolve deterministically.
func (s *Store) LatestPerService(ctx context.Context) ([]domain.ProbeOutcome, error) {
	return s.queryOutcomes(ctx, `
        SELECT h.id, h.timestamp, h.service_name, h.url, h.status, h.status_code, h.response_time, h.details
        FROM history h
        INNER JOIN (
            SELECT service_name, MAX(id) AS max_id
            FROM history
            GROUP BY service_name
        ) latest ON h.service_name = latest.service_name AND h.id = latest.max_id
        ORDER BY h.service_name`)
}

// RecentFailures returns up to limit FAILURE outcomes, newest first.
func (s *Store) RecentFailures(ctx context.Context, limit int) ([]domain.ProbeOutcome, error) {
	return s.queryOutcomes(ctx, `
        SELECT id, timestamp, service_name, url, status, status_code, response_time, details
        FROM history
        WHERE status = 'FAILURE'
        ORDER BY timestamp DESC, id DESC
        LIMIT ?`, limit)
}

func (s *Store) queryOutcomes(ctx context.Context, query string, args ...any) ([]domain.ProbeOutcome, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	out := make([]domain.ProbeOutcome, 0, 16)
	for rows.Next() {
		var (
			o       domain.ProbeOutcome
			status  string
			code    sql.NullInt64
			rt      sql.NullFloat64
			details sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Timestamp, &o.ServiceName, &o.URL, &status, &code, &rt, &details); err != nil {
			return nil, &StorageError{Op: "scan", Err: err}
		}
		o.Status = domain.Status(status)
		if code.Valid {
			v := int(code.Int64)
			o.StatusCode = &v
		}
		if rt.Valid {
			v := rt.Float64
			o.ResponseTime = &v
		}
		if details.Valid {
			o.Details = details.String
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	return out, nil
}
