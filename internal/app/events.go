package app

import (
	"errors"

	"flip/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrUnknownPlayer   = errors.New("player not in session")
	ErrUnknownVariant  = errors.New("unknown game variant")
	ErrDuplicatePlayer = errors.New("duplicate player id")
	// ErrInternalFault wraps engine defects. The command was not applied.
	ErrInternalFault = errors.New("internal engine fault")
)

// Result is the synchronous answer to a submitted command: whether it was
// applied, why not, and the caller's own view afterwards.
type Result struct {
	Applied bool                 `json:"applied"`
	Seq     uint64               `json:"seq"`
	Errors  []domain.ErrorDetail `json:"errors"`
	// Events are the log entries this command appended.
	Events []domain.LogEntry `json:"events,omitempty"`
	View   domain.View       `json:"view"`
}

// Update is one push to a subscriber. Every update is a full view.
type Update struct {
	Seq  uint64      `json:"seq"`
	View domain.View `json:"view"`
}

// Snapshot is a committed, immutable session state. Nothing mutates a
// Snapshot once the coordinator has published it.
type Snapshot struct {
	State domain.State
	Seq   uint64
	Log   []domain.LogEntry
}
