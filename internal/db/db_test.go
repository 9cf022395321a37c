package db_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/NeerajN2001/rfid-attendance/internal/db"
)

func TestOpen_MigratesAndSeedsIdempotently(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "attendance.db")

	conn, err := db.Open(ctx, db.Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	for i := 0; i < 2; i++ {
		if err := db.Seed(ctx, conn, db.SeedOptions{}); err != nil {
			t.Fatalf("Seed #%d: %v", i+1, err)
		}
	}
	// Re-running migrations on an up-to-date schema is a no-op.
	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("Migrate again: %v", err)
	}

	var name, role string
	if err := conn.QueryRowContext(ctx,
		`SELECT name, role FROM users WHERE badge_id = ?`, db.DefaultAdminBadgeID,
	).Scan(&name, &role); err != nil {
		t.Fatalf("query admin: %v", err)
	}
	if name != "master_admin" || role != "admin" {
		t.Errorf("unexpected admin row: %s/%s", name, role)
	}

	var users int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 1 {
		t.Errorf("expected 1 seeded user, got %d", users)
	}

	var reset string
	if err := conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'reset_time'`,
	).Scan(&reset); err != nil {
		t.Fatalf("query reset_time: %v", err)
	}
	if reset != "05:00:00" {
		t.Errorf("expected default reset_time, got %q", reset)
	}
}

func TestSeed_KeepsExistingResetTime(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{Path: filepath.Join(t.TempDir(), "a.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.ExecContext(ctx,
		`INSERT INTO settings(key, value, updated_at_ms) VALUES ('reset_time', '06:00:00', 0)`,
	); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Seed(ctx, conn, db.SeedOptions{ResetTime: "05:00:00"}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	var reset string
	_ = conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'reset_time'`).Scan(&reset)
	if reset != "06:00:00" {
		t.Errorf("seed must not overwrite, got %q", reset)
	}
}

func TestWorker_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{Path: filepath.Join(t.TempDir(), "w.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	w := db.NewWorker(conn)
	defer w.Close()

	boom := errors.New("boom")
	err = w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings(key, value, updated_at_ms) VALUES ('k', 'v', 0)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error back, got %v", err)
	}

	var n int
	_ = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings WHERE key = 'k'`).Scan(&n)
	if n != 0 {
		t.Errorf("expected rollback, found %d rows", n)
	}
}

func TestWorker_DoAfterClose(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{Path: filepath.Join(t.TempDir(), "c.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	w := db.NewWorker(conn)
	w.Close()
	w.Close()

	err = w.Do(ctx, func(context.Context, *sql.Tx) error { return nil })
	if !errors.Is(err, db.ErrWorkerClosed) {
		t.Fatalf("expected ErrWorkerClosed, got %v", err)
	}
}
