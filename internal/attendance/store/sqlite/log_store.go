package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
	dbpkg "github.com/NeerajN2001/rfid-attendance/internal/db"
)

// LogStore keeps timestamps as UTC unix milliseconds, like every other
// *_ms column in the schema.
type LogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewLogStore(db *sql.DB, writer *dbpkg.Worker) *LogStore {
	return &LogStore{db: db, writer: writer}
}

func (s *LogStore) Append(ctx context.Context, e store.LogEntry) error {
	var tapOutMs any
	if e.TapOutAt != nil {
		tapOutMs = e.TapOutAt.UTC().UnixMilli()
	}
	var duration any
	if e.Duration != "" {
		duration = e.Duration
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO attendance_log(
  entry_id, badge_id, tap_in_at_ms, tap_out_at_ms, status, duration
) VALUES (?, ?, ?, ?, ?, ?);
`, e.ID, e.BadgeID, e.TapInAt.UTC().UnixMilli(), tapOutMs, string(e.Status), duration); err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		return nil
	})
}

func (s *LogStore) LatestInWindow(ctx context.Context, badgeID string, start, end time.Time) (*store.LogEntry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT entry_id, badge_id, tap_in_at_ms, tap_out_at_ms, status, duration
FROM attendance_log
WHERE badge_id = ? AND tap_in_at_ms >= ? AND tap_in_at_ms < ?
ORDER BY seq DESC
LIMIT 1;
`, badgeID, start.UTC().UnixMilli(), end.UTC().UnixMilli())

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestInWindow query: %w", err)
	}
	return &e, nil
}

// CompleteTapOut is a single UPDATE inside the worker transaction, so a
// failure leaves the row exactly as it was.
func (s *LogStore) CompleteTapOut(ctx context.Context, id string, tapOutAt time.Time, duration string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE attendance_log
SET tap_out_at_ms = ?,
    status        = ?,
    duration      = ?
WHERE entry_id = ?;
`, tapOutAt.UTC().UnixMilli(), string(store.StatusTapOut), duration, id)
		if err != nil {
			return fmt.Errorf("CompleteTapOut update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("CompleteTapOut rows: %w", err)
		}
		if n == 0 {
			return store.ErrEntryNotFound
		}
		return nil
	})
}

func (s *LogStore) ListByBadge(ctx context.Context, badgeID string) ([]store.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT entry_id, badge_id, tap_in_at_ms, tap_out_at_ms, status, duration
FROM attendance_log
WHERE badge_id = ?
ORDER BY seq ASC;
`, badgeID)
	if err != nil {
		return nil, fmt.Errorf("ListByBadge query: %w", err)
	}
	defer rows.Close()

	var out []store.LogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByBadge scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByBadge rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (store.LogEntry, error) {
	var (
		e        store.LogEntry
		tapInMs  int64
		tapOutMs sql.NullInt64
		status   string
		duration sql.NullString
	)
	if err := r.Scan(&e.ID, &e.BadgeID, &tapInMs, &tapOutMs, &status, &duration); err != nil {
		return store.LogEntry{}, err
	}
	e.TapInAt = time.UnixMilli(tapInMs).UTC()
	if tapOutMs.Valid {
		t := time.UnixMilli(tapOutMs.Int64).UTC()
		e.TapOutAt = &t
	}
	e.Status = store.Status(status)
	e.Duration = duration.String
	return e, nil
}
