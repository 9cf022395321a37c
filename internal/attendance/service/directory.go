package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
)

// Directory is a write-through cache of the DirectoryStore.  Lookups are
// served from memory; Put and Remove persist first and only then update the
// cache, so a failed write never shows up in a later lookup.
type Directory struct {
	store store.DirectoryStore

	mu    sync.RWMutex
	users map[string]store.UserRecord
}

func NewDirectory(st store.DirectoryStore) *Directory {
	return &Directory{store: st, users: make(map[string]store.UserRecord)}
}

// Reload replaces the cache with the store's current contents.
func (d *Directory) Reload(ctx context.Context) error {
	recs, err := d.store.List(ctx)
	if err != nil {
		return err
	}
	users := make(map[string]store.UserRecord, len(recs))
	for _, r := range recs {
		users[r.BadgeID] = r
	}

	d.mu.Lock()
	d.users = users
	d.mu.Unlock()
	return nil
}

func (d *Directory) Lookup(badgeID string) (store.UserRecord, bool) {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return store.UserRecord{}, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.users[badgeID]
	return r, ok
}

func (d *Directory) Put(ctx context.Context, rec store.UserRecord) error {
	if err := d.store.Upsert(ctx, rec); err != nil {
		return err
	}
	d.mu.Lock()
	d.users[rec.BadgeID] = rec
	d.mu.Unlock()
	return nil
}

func (d *Directory) Remove(ctx context.Context, badgeID string) error {
	if err := d.store.Delete(ctx, badgeID); err != nil {
		return err
	}
	d.mu.Lock()
	delete(d.users, badgeID)
	d.mu.Unlock()
	return nil
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

// Users returns a snapshot of the cache sorted by badge id.
func (d *Directory) Users() []store.UserRecord {
	d.mu.RLock()
	out := make([]store.UserRecord, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].BadgeID < out[j].BadgeID })
	return out
}
