package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
)

type DirectoryStore struct {
	mu    sync.RWMutex
	users map[string]store.UserRecord
}

func NewDirectoryStore(seed ...store.UserRecord) *DirectoryStore {
	u := make(map[string]store.UserRecord, len(seed))
	for _, r := range seed {
		r.BadgeID = strings.TrimSpace(r.BadgeID)
		if r.BadgeID != "" {
			u[r.BadgeID] = r
		}
	}
	return &DirectoryStore{users: u}
}

func (s *DirectoryStore) Get(_ context.Context, badgeID string) (store.UserRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.users[badgeID]
	return r, ok, nil
}

func (s *DirectoryStore) Upsert(_ context.Context, rec store.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[rec.BadgeID] = rec
	return nil
}

func (s *DirectoryStore) Delete(_ context.Context, badgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, badgeID)
	return nil
}

func (s *DirectoryStore) List(_ context.Context) ([]store.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.UserRecord, 0, len(s.users))
	for _, r := range s.users {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BadgeID < out[j].BadgeID })
	return out, nil
}
