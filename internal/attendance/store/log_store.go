package store

import (
	"context"
	"time"
)

type Status string

const (
	StatusTapIn  Status = "Tap In"
	StatusTapOut Status = "Tap Out"
)

// LogEntry is one attendance cycle.  It is created on tap-in with TapOutAt
// nil and completed in place on the matching tap-out.
type LogEntry struct {
	ID       string
	BadgeID  string
	TapInAt  time.Time
	TapOutAt *time.Time
	Status   Status
	Duration string // "HH:MM:SS"; empty until tap-out
}

// LogStore is an append-only attendance log with a single in-place update.
type LogStore interface {
	Append(ctx context.Context, e LogEntry) error

	// LatestInWindow returns the most recently appended entry for badgeID
	// whose TapInAt lies in [start, end), or nil when there is none.
	LatestInWindow(ctx context.Context, badgeID string, start, end time.Time) (*LogEntry, error)

	// CompleteTapOut marks entry id as tapped out.  It either applies all
	// three fields or none of them.
	CompleteTapOut(ctx context.Context, id string, tapOutAt time.Time, duration string) error

	// ListByBadge returns every entry for badgeID, oldest first.
	ListByBadge(ctx context.Context, badgeID string) ([]LogEntry, error)
}
