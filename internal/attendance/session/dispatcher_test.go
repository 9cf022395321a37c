package session_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/types"
)

func handle(t *testing.T, f *fixture, raw string) (types.Reply, bool) {
	t.Helper()
	return f.dispatcher.Handle(context.Background(), json.RawMessage(raw))
}

func mustHandle(t *testing.T, f *fixture, raw string) types.Reply {
	t.Helper()
	r, ok := handle(t, f, raw)
	require.True(t, ok, "expected a reply to %s", raw)
	return r
}

// ── scan ──

func TestDispatch_ScanCycle(t *testing.T) {
	f := newFixture(t)

	r := mustHandle(t, f, `{"md":"scan","id":"AA01"}`)
	require.Equal(t, types.Reply{MD: "scan", Action: "IN", Name: "alice", Time: "09:15:30"}, r)

	f.clock.Advance(90 * time.Minute)
	r = mustHandle(t, f, `{"md":"scan","id":"AA01"}`)
	require.Equal(t, types.Reply{MD: "scan", Action: "OUT", Name: "alice", Time: "10:45:30", Duration: "01:30:00"}, r)

	f.clock.Advance(time.Minute)
	r = mustHandle(t, f, `{"md":"scan","id":"AA01"}`)
	require.Equal(t, types.Reply{MD: "scan", Action: "FAIL", Name: "alice", Time: "10:46:30", ResetTime: "05:00:00"}, r)
}

func TestDispatch_ScanUnknownBadge(t *testing.T) {
	f := newFixture(t)
	r := mustHandle(t, f, `{"md":"scan","id":"ZZZZ"}`)
	require.Equal(t, types.Reply{MD: "scan", Result: "NF"}, r)
}

func TestDispatch_ScanReplyWireShape(t *testing.T) {
	f := newFixture(t)
	r := mustHandle(t, f, `{"md":"scan","id":"AA01"}`)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"md":"scan","act":"IN","nm":"alice","tm":"09:15:30"}`, string(b))
}

// ── auth / search ──

func TestDispatch_Auth(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, "admin", mustHandle(t, f, `{"md":"auth","id":"426E3302"}`).Result)
	require.Equal(t, "not-admin", mustHandle(t, f, `{"md":"auth","id":"AA01"}`).Result)
	require.Equal(t, "not-admin", mustHandle(t, f, `{"md":"auth","id":"ZZZZ"}`).Result)
}

func TestDispatch_Search(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, types.Reply{MD: "search", Result: "F"}, mustHandle(t, f, `{"md":"search","id":"AA01"}`))
	require.Equal(t, types.Reply{MD: "search", Result: "NF"}, mustHandle(t, f, `{"md":"search","id":"ZZZZ"}`))
}

// ── add / delete ──

func TestDispatch_AddThenDelete(t *testing.T) {
	f := newFixture(t)

	r := mustHandle(t, f, `{"md":"add","id":"BB02","un":"bob","ut":"staff"}`)
	require.Equal(t, types.Reply{MD: "add", Result: "A"}, r)
	require.True(t, f.engine.Search("BB02"))

	r = mustHandle(t, f, `{"md":"delete","id":"BB02"}`)
	require.Equal(t, types.Reply{MD: "delete", Result: "DL"}, r)
	require.False(t, f.engine.Search("BB02"))

	// Deleting again is not an error.
	r = mustHandle(t, f, `{"md":"delete","id":"BB02"}`)
	require.Equal(t, "DL", r.Result)
}

func TestDispatch_AddEmptyBadgeFails(t *testing.T) {
	f := newFixture(t)
	r := mustHandle(t, f, `{"md":"add","id":"  ","un":"x","ut":"staff"}`)
	require.Equal(t, types.Reply{MD: "add", Result: "FAIL"}, r)
}

// ── rst_time ──

func TestDispatch_ResetTime(t *testing.T) {
	f := newFixture(t)

	r := mustHandle(t, f, `{"md":"rst_time","tm":"6:30:0"}`)
	require.Equal(t, types.Reply{MD: "rst_time", Result: "D"}, r)

	v, ok, err := f.settings.Get(context.Background(), store.KeyResetTime)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "06:30:00", v)

	for _, bad := range []string{"25:00:00", "06:30", "0630", "aa:bb:cc"} {
		r = mustHandle(t, f, `{"md":"rst_time","tm":"`+bad+`"}`)
		require.Equal(t, types.Reply{MD: "rst_time", Result: "FAIL"}, r, bad)

		v, _, _ = f.settings.Get(context.Background(), store.KeyResetTime)
		require.Equal(t, "06:30:00", v, "rejected %q must not be stored", bad)
	}
}

// ── dropped commands ──

func TestDispatch_DropsUnknownAndMalformed(t *testing.T) {
	f := newFixture(t)
	for _, raw := range []string{
		`{"md":"reboot"}`,
		`{"md":"scan"}`,
		`{"md":"add","id":"CC03","un":"carol"}`,
		`{"md":"rst_time"}`,
		`{"id":"AA01"}`,
		`"scan"`,
		`not json`,
	} {
		_, ok := handle(t, f, raw)
		require.False(t, ok, raw)
	}
	require.False(t, f.engine.Search("CC03"))
}
