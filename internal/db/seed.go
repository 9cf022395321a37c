package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultAdminBadgeID is the badge provisioned on a fresh database so the
// reader can be administered before any users exist.
const DefaultAdminBadgeID = "426E3302"

type SeedOptions struct {
	ResetTime string // default reset_time; "05:00:00" when empty
	AdminRole string // role given to the default admin; "admin" when empty
}

// Seed creates the default admin user and default settings.  Existing rows
// are left alone, so running it on every start is safe.
func Seed(ctx context.Context, db *sql.DB, opt SeedOptions) error {
	if opt.ResetTime == "" {
		opt.ResetTime = "05:00:00"
	}
	if opt.AdminRole == "" {
		opt.AdminRole = "admin"
	}
	now := time.Now().UTC().UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO users(badge_id, name, role, created_at_ms, updated_at_ms)
VALUES (?, 'master_admin', ?, ?, ?);`, DefaultAdminBadgeID, opt.AdminRole, now, now); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO settings(key, value, updated_at_ms)
VALUES ('reset_time', ?, ?);`, opt.ResetTime, now); err != nil {
		return fmt.Errorf("seed reset_time: %w", err)
	}

	return nil
}
