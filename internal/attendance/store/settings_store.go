package store

import "context"

// KeyResetTime holds the daily time-of-day at which the attendance window
// rolls over, as "HH:MM:SS".
const KeyResetTime = "reset_time"

type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
