package memory

import (
	"context"
	"sync"
	"time"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
)

// LogStore is an in-memory attendance log.  Alongside the append-ordered
// slice it keeps a per-badge index of positions, so the latest-entry lookup
// walks only that badge's entries, newest first.
type LogStore struct {
	mu      sync.RWMutex
	entries []store.LogEntry
	byBadge map[string][]int
	byID    map[string]int
}

func NewLogStore() *LogStore {
	return &LogStore{
		byBadge: make(map[string][]int),
		byID:    make(map[string]int),
	}
}

func (s *LogStore) Append(_ context.Context, e store.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.entries)
	s.entries = append(s.entries, cloneEntry(e))
	s.byBadge[e.BadgeID] = append(s.byBadge[e.BadgeID], idx)
	s.byID[e.ID] = idx
	return nil
}

func (s *LogStore) LatestInWindow(_ context.Context, badgeID string, start, end time.Time) (*store.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idxs := s.byBadge[badgeID]
	for i := len(idxs) - 1; i >= 0; i-- {
		e := s.entries[idxs[i]]
		if !e.TapInAt.Before(start) && e.TapInAt.Before(end) {
			out := cloneEntry(e)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *LogStore) CompleteTapOut(_ context.Context, id string, tapOutAt time.Time, duration string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return store.ErrEntryNotFound
	}
	e := s.entries[idx]
	t := tapOutAt
	e.TapOutAt = &t
	e.Status = store.StatusTapOut
	e.Duration = duration
	s.entries[idx] = e
	return nil
}

func (s *LogStore) ListByBadge(_ context.Context, badgeID string) ([]store.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idxs := s.byBadge[badgeID]
	out := make([]store.LogEntry, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, cloneEntry(s.entries[i]))
	}
	return out, nil
}

// Entries returns a copy of the whole log in append order.  Test-only helper.
func (s *LogStore) Entries() []store.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.LogEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

func cloneEntry(e store.LogEntry) store.LogEntry {
	if e.TapOutAt != nil {
		t := *e.TapOutAt
		e.TapOutAt = &t
	}
	return e
}
