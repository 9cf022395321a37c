package store

import "errors"

// ErrEntryNotFound is returned by CompleteTapOut for an unknown entry id.
var ErrEntryNotFound = errors.New("log entry not found")
