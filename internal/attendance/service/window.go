package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
)

// DefaultResetTime is used when no reset time is configured or the stored
// one cannot be parsed.
const DefaultResetTime = "05:00:00"

// Window is the half-open accounting interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// TimeOfDay is a wall-clock reset point.
type TimeOfDay struct {
	Hour, Minute, Second int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// CurrentWindow returns the 24h window containing now, anchored at the most
// recent occurrence of reset that is at or before now.  The calendar day is
// taken in now's location.
func CurrentWindow(reset TimeOfDay, now time.Time) Window {
	y, m, d := now.Date()
	todayReset := time.Date(y, m, d, reset.Hour, reset.Minute, reset.Second, 0, now.Location())

	if !now.Before(todayReset) {
		return Window{Start: todayReset, End: todayReset.Add(24 * time.Hour)}
	}
	return Window{Start: todayReset.Add(-24 * time.Hour), End: todayReset}
}

// ParseResetTime reads a stored reset time.  "HH:MM" is padded to
// "HH:MM:00".
func ParseResetTime(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 2 {
		parts = append(parts, "0")
	}
	if len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidResetTime, s)
	}
	return parseClockParts(s, parts)
}

// NormalizeResetTime validates an operator-supplied reset time and returns
// it as "HH:MM:SS".  The value must carry two or three colons; a fourth
// component, when present, must be numeric and is dropped.
func NormalizeResetTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	n := strings.Count(s, ":")
	if n < 2 || n > 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidResetTime, s)
	}
	parts := strings.Split(s, ":")
	if n == 3 {
		if _, err := strconv.Atoi(parts[3]); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidResetTime, s)
		}
	}
	tod, err := parseClockParts(s, parts[:3])
	if err != nil {
		return "", err
	}
	return tod.String(), nil
}

func parseClockParts(raw string, parts []string) (TimeOfDay, error) {
	var v [3]int
	limits := [3]int{23, 59, 59}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > limits[i] {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidResetTime, raw)
		}
		v[i] = n
	}
	return TimeOfDay{Hour: v[0], Minute: v[1], Second: v[2]}, nil
}

// FormatDuration renders d as zero-padded HH:MM:SS, truncated to whole
// seconds.  Negative durations render as 00:00:00.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// EffectiveStatus applies the privileged-role exemption: a privileged user
// who already tapped out in this window is treated as having no entry.
// The empty status means "no qualifying entry".
func EffectiveStatus(privileged bool, raw store.Status) store.Status {
	if privileged && raw == store.StatusTapOut {
		return ""
	}
	return raw
}
