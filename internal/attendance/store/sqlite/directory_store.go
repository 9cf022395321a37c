package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
	dbpkg "github.com/NeerajN2001/rfid-attendance/internal/db"
)

type DirectoryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDirectoryStore(db *sql.DB, writer *dbpkg.Worker) *DirectoryStore {
	return &DirectoryStore{db: db, writer: writer}
}

func (s *DirectoryStore) Get(ctx context.Context, badgeID string) (store.UserRecord, bool, error) {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return store.UserRecord{}, false, nil
	}

	rec := store.UserRecord{BadgeID: badgeID}
	err := s.db.QueryRowContext(ctx, `
SELECT name, role FROM users WHERE badge_id = ?;
`, badgeID).Scan(&rec.Name, &rec.Role)

	if err == sql.ErrNoRows {
		return store.UserRecord{}, false, nil
	}
	if err != nil {
		return store.UserRecord{}, false, fmt.Errorf("Get user query: %w", err)
	}
	return rec, true, nil
}

// Upsert inserts the user or overwrites name and role of an existing one.
func (s *DirectoryStore) Upsert(ctx context.Context, rec store.UserRecord) error {
	ms := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO users(badge_id, name, role, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(badge_id) DO UPDATE SET
  name          = excluded.name,
  role          = excluded.role,
  updated_at_ms = excluded.updated_at_ms;
`, rec.BadgeID, rec.Name, rec.Role, ms, ms); err != nil {
			return fmt.Errorf("Upsert user %s: %w", rec.BadgeID, err)
		}
		return nil
	})
}

func (s *DirectoryStore) Delete(ctx context.Context, badgeID string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM users WHERE badge_id = ?;
`, badgeID); err != nil {
			return fmt.Errorf("Delete user %s: %w", badgeID, err)
		}
		return nil
	})
}

func (s *DirectoryStore) List(ctx context.Context) ([]store.UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT badge_id, name, role FROM users ORDER BY badge_id;
`)
	if err != nil {
		return nil, fmt.Errorf("List users query: %w", err)
	}
	defer rows.Close()

	var out []store.UserRecord
	for rows.Next() {
		var r store.UserRecord
		if err := rows.Scan(&r.BadgeID, &r.Name, &r.Role); err != nil {
			return nil, fmt.Errorf("List users scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List users rows: %w", err)
	}
	return out, nil
}
