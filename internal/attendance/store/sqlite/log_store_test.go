package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
	sqlitestore "github.com/NeerajN2001/rfid-attendance/internal/attendance/store/sqlite"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func appendEntry(t *testing.T, ls *sqlitestore.LogStore, id, badge string, tapIn time.Time) {
	t.Helper()
	err := ls.Append(context.Background(), store.LogEntry{
		ID:      id,
		BadgeID: badge,
		TapInAt: tapIn,
		Status:  store.StatusTapIn,
	})
	if err != nil {
		t.Fatalf("Append %s: %v", id, err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Append / LatestInWindow
// ═══════════════════════════════════════════════════════════════════════════

func TestLogStore_LatestInWindow_NoEntries(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLogStore(conn, newTestWriter(t, conn))

	e, err := ls.LatestInWindow(context.Background(), "AA01", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("LatestInWindow: %v", err)
	}
	if e != nil {
		t.Fatalf("expected nil entry, got %+v", e)
	}
}

func TestLogStore_LatestInWindow_PicksMostRecentlyAppended(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLogStore(conn, newTestWriter(t, conn))

	appendEntry(t, ls, "e1", "AA01", day.Add(6*time.Hour))
	appendEntry(t, ls, "e2", "BB02", day.Add(7*time.Hour))
	appendEntry(t, ls, "e3", "AA01", day.Add(9*time.Hour))

	e, err := ls.LatestInWindow(context.Background(), "AA01", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("LatestInWindow: %v", err)
	}
	if e == nil || e.ID != "e3" {
		t.Fatalf("expected e3, got %+v", e)
	}
	if !e.TapInAt.Equal(day.Add(9 * time.Hour)) {
		t.Errorf("unexpected tap_in %v", e.TapInAt)
	}
	if e.Status != store.StatusTapIn || e.TapOutAt != nil || e.Duration != "" {
		t.Errorf("expected open tap-in entry, got %+v", e)
	}
}

func TestLogStore_LatestInWindow_HalfOpenBounds(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLogStore(conn, newTestWriter(t, conn))

	start := day.Add(5 * time.Hour)
	end := start.Add(24 * time.Hour)

	appendEntry(t, ls, "at-end", "AA01", end)
	e, err := ls.LatestInWindow(context.Background(), "AA01", start, end)
	if err != nil {
		t.Fatalf("LatestInWindow: %v", err)
	}
	if e != nil {
		t.Fatalf("entry at window end must be excluded, got %+v", e)
	}

	appendEntry(t, ls, "at-start", "AA01", start)
	e, err = ls.LatestInWindow(context.Background(), "AA01", start, end)
	if err != nil {
		t.Fatalf("LatestInWindow: %v", err)
	}
	if e == nil || e.ID != "at-start" {
		t.Fatalf("entry at window start must be included, got %+v", e)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// CompleteTapOut
// ═══════════════════════════════════════════════════════════════════════════

func TestLogStore_CompleteTapOut_UpdatesInPlace(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLogStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	appendEntry(t, ls, "e1", "AA01", day.Add(8*time.Hour))
	out := day.Add(9*time.Hour + 2*time.Minute + 3*time.Second)

	if err := ls.CompleteTapOut(ctx, "e1", out, "01:02:03"); err != nil {
		t.Fatalf("CompleteTapOut: %v", err)
	}

	entries, err := ls.ListByBadge(ctx, "AA01")
	if err != nil {
		t.Fatalf("ListByBadge: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no new row), got %d", len(entries))
	}
	e := entries[0]
	if e.Status != store.StatusTapOut {
		t.Errorf("expected status Tap Out, got %q", e.Status)
	}
	if e.TapOutAt == nil || !e.TapOutAt.Equal(out) {
		t.Errorf("unexpected tap_out %v", e.TapOutAt)
	}
	if e.Duration != "01:02:03" {
		t.Errorf("unexpected duration %q", e.Duration)
	}
}

func TestLogStore_CompleteTapOut_UnknownEntry(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLogStore(conn, newTestWriter(t, conn))

	err := ls.CompleteTapOut(context.Background(), "missing", day, "00:00:01")
	if !errors.Is(err, store.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestLogStore_ListByBadge_OldestFirst(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLogStore(conn, newTestWriter(t, conn))

	appendEntry(t, ls, "e1", "AA01", day.Add(1*time.Hour))
	appendEntry(t, ls, "e2", "AA01", day.Add(2*time.Hour))

	entries, err := ls.ListByBadge(context.Background(), "AA01")
	if err != nil {
		t.Fatalf("ListByBadge: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "e1" || entries[1].ID != "e2" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}
