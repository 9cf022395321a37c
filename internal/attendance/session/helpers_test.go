package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/service"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/session"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store/memory"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	dispatcher *session.Dispatcher
	engine     *service.Engine
	settings   *memory.SettingsStore
	clock      *fixedClock
}

// newFixture wires a Dispatcher over in-memory stores holding one regular
// user (AA01 alice) and the admin badge, at 2026-03-10 09:15:30 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := service.NewDirectory(memory.NewDirectoryStore(
		store.UserRecord{BadgeID: "AA01", Name: "alice", Role: "staff"},
		store.UserRecord{BadgeID: "426E3302", Name: "master_admin", Role: "admin"},
	))
	require.NoError(t, dir.Reload(context.Background()))

	f := &fixture{
		settings: memory.NewSettingsStore(map[string]string{store.KeyResetTime: "05:00:00"}),
		clock:    &fixedClock{now: time.Date(2026, 3, 10, 9, 15, 30, 0, time.UTC)},
	}
	f.engine = service.NewEngine(dir, f.settings, memory.NewLogStore(), service.EngineConfig{
		Location: time.UTC,
		Clock:    f.clock,
	})
	f.dispatcher = session.NewDispatcher(f.engine, nil)
	return f
}
