package store

import "context"

// UserRecord is one badge holder in the directory.
type UserRecord struct {
	BadgeID string
	Name    string
	Role    string
}

// DirectoryStore maps badge ids to users.  Delete of an absent badge is not
// an error.
type DirectoryStore interface {
	Get(ctx context.Context, badgeID string) (UserRecord, bool, error)
	Upsert(ctx context.Context, rec UserRecord) error
	Delete(ctx context.Context, badgeID string) error
	List(ctx context.Context) ([]UserRecord, error)
}
