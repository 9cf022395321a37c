package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
)

type ScanKind int

const (
	ScanNotFound ScanKind = iota
	ScanTapIn
	ScanTapOut
	ScanFail
	ScanLogError
	ScanInconsistent
)

func (k ScanKind) String() string {
	switch k {
	case ScanNotFound:
		return "not_found"
	case ScanTapIn:
		return "tap_in"
	case ScanTapOut:
		return "tap_out"
	case ScanFail:
		return "fail"
	case ScanLogError:
		return "log_error"
	case ScanInconsistent:
		return "inconsistent"
	default:
		return fmt.Sprintf("ScanKind(%d)", int(k))
	}
}

// ScanResult is the outcome of one badge scan.  Name and At are set for
// TapIn, TapOut and Fail; Duration only for TapOut; ResetTime only for Fail.
type ScanResult struct {
	Kind      ScanKind
	Name      string
	At        time.Time
	Duration  string
	ResetTime string
}

type EngineConfig struct {
	// PrivilegedRole is exempt from the one-cycle-per-window rule.
	// Compared case-insensitively.  Defaults to "admin".
	PrivilegedRole string

	// Location defines the calendar day the reset time is anchored to.
	// Defaults to time.Local.
	Location *time.Location

	Clock  Clock
	Logger *log.Logger
}

// Engine applies the attendance policy.  Every mutating operation holds mu
// for its whole read-decide-write sequence, so two scans of the same badge
// can never both see "no entry" and double-book a tap-in.
type Engine struct {
	mu sync.Mutex

	directory *Directory
	settings  store.SettingsStore
	log       store.LogStore

	privilegedRole string
	loc            *time.Location
	clock          Clock
	logger         *log.Logger
}

func NewEngine(dir *Directory, settings store.SettingsStore, logStore store.LogStore, cfg EngineConfig) *Engine {
	if strings.TrimSpace(cfg.PrivilegedRole) == "" {
		cfg.PrivilegedRole = "admin"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Engine{
		directory:      dir,
		settings:       settings,
		log:            logStore,
		privilegedRole: strings.TrimSpace(cfg.PrivilegedRole),
		loc:            cfg.Location,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
	}
}

func (e *Engine) isPrivileged(u store.UserRecord) bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), e.privilegedRole)
}

// Scan records a tap for badgeID.  A non-nil error accompanies LogError
// (wrapping ErrPersistence) and Inconsistent (wrapping
// ErrInternalInconsistency) results; the result is always usable as a reply.
func (e *Engine) Scan(ctx context.Context, badgeID string) (ScanResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	badgeID = strings.TrimSpace(badgeID)
	user, ok := e.directory.Lookup(badgeID)
	if !ok {
		return ScanResult{Kind: ScanNotFound}, nil
	}

	now := e.clock.Now().In(e.loc)
	reset, err := e.resetTime(ctx)
	if err != nil {
		return ScanResult{Kind: ScanLogError}, fmt.Errorf("%w: read reset time: %v", ErrPersistence, err)
	}
	win := CurrentWindow(reset, now)

	last, err := e.log.LatestInWindow(ctx, badgeID, win.Start, win.End)
	if err != nil {
		return ScanResult{Kind: ScanLogError}, fmt.Errorf("%w: find last entry: %v", ErrPersistence, err)
	}

	var raw store.Status
	if last != nil {
		raw = last.Status
	}
	status := EffectiveStatus(e.isPrivileged(user), raw)
	if status != raw {
		e.logger.Printf("scan badge=%s role=%s: exempt from one-cycle rule", badgeID, user.Role)
	}

	switch status {
	case "":
		entry := store.LogEntry{
			ID:      uuid.NewString(),
			BadgeID: badgeID,
			TapInAt: now,
			Status:  store.StatusTapIn,
		}
		if err := e.log.Append(ctx, entry); err != nil {
			return ScanResult{Kind: ScanLogError}, fmt.Errorf("%w: append tap-in: %v", ErrPersistence, err)
		}
		return ScanResult{Kind: ScanTapIn, Name: user.Name, At: now}, nil

	case store.StatusTapIn:
		if last == nil {
			break
		}
		dur := FormatDuration(now.Sub(last.TapInAt))
		if err := e.log.CompleteTapOut(ctx, last.ID, now, dur); err != nil {
			return ScanResult{Kind: ScanLogError}, fmt.Errorf("%w: complete tap-out %s: %v", ErrPersistence, last.ID, err)
		}
		return ScanResult{Kind: ScanTapOut, Name: user.Name, At: now, Duration: dur}, nil

	case store.StatusTapOut:
		return ScanResult{Kind: ScanFail, Name: user.Name, At: now, ResetTime: reset.String()}, nil
	}

	return ScanResult{Kind: ScanInconsistent},
		fmt.Errorf("%w: badge=%s status=%q", ErrInternalInconsistency, badgeID, raw)
}

// resetTime reads the configured reset time.  A missing or unparseable
// value falls back to DefaultResetTime; only a store failure is an error.
func (e *Engine) resetTime(ctx context.Context) (TimeOfDay, error) {
	raw, ok, err := e.settings.Get(ctx, store.KeyResetTime)
	if err != nil {
		return TimeOfDay{}, err
	}
	if !ok {
		raw = DefaultResetTime
	}
	tod, err := ParseResetTime(raw)
	if err != nil {
		e.logger.Printf("invalid stored reset_time %q, using %s", raw, DefaultResetTime)
		tod, _ = ParseResetTime(DefaultResetTime)
	}
	return tod, nil
}

// Authorize reports whether badgeID belongs to a privileged user.
// Unknown badges are not privileged.
func (e *Engine) Authorize(badgeID string) bool {
	u, ok := e.directory.Lookup(badgeID)
	return ok && e.isPrivileged(u)
}

// Search reports whether badgeID is in the directory.
func (e *Engine) Search(badgeID string) bool {
	_, ok := e.directory.Lookup(badgeID)
	return ok
}

// AddUser inserts or overwrites a directory entry.
func (e *Engine) AddUser(ctx context.Context, badgeID, name, role string) error {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return ErrInvalidBadgeID
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.directory.Put(ctx, store.UserRecord{BadgeID: badgeID, Name: name, Role: role})
}

// DeleteUser removes badgeID.  Deleting an absent badge succeeds.
func (e *Engine) DeleteUser(ctx context.Context, badgeID string) error {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return ErrInvalidBadgeID
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.directory.Remove(ctx, badgeID)
}

// SetResetTime validates and stores a new reset time, then reloads the
// directory.  It returns the normalized "HH:MM:SS" value.  On validation
// failure Settings are not touched.
func (e *Engine) SetResetTime(ctx context.Context, value string) (string, error) {
	norm, err := NormalizeResetTime(value)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.settings.Set(ctx, store.KeyResetTime, norm); err != nil {
		return "", err
	}
	if err := e.directory.Reload(ctx); err != nil {
		e.logger.Printf("directory reload after reset_time update: %v", err)
	}
	return norm, nil
}

// ResetTime returns the effective reset time as "HH:MM:SS".
func (e *Engine) ResetTime(ctx context.Context) (string, error) {
	tod, err := e.resetTime(ctx)
	if err != nil {
		return "", err
	}
	return tod.String(), nil
}

// Users returns the cached directory sorted by badge id.
func (e *Engine) Users() []store.UserRecord {
	return e.directory.Users()
}

// History returns every log entry for badgeID, oldest first.
func (e *Engine) History(ctx context.Context, badgeID string) ([]store.LogEntry, error) {
	return e.log.ListByBadge(ctx, strings.TrimSpace(badgeID))
}
