package session

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no session exists for the token.
	ErrNotFound = errors.New("session not found")

	// ErrNotActive is returned when an operation requires an active session
	// but the record is expired or terminated.
	ErrNotActive = errors.New("session is not active")
)

// Status is the lifecycle state of a session. Expired, Terminated and
// Invalid are terminal.
type Status string

const (
	// StatusActive marks a usable session within its expiry window.
	StatusActive Status = "ACTIVE"
	// StatusExpired marks a session whose expiry passed before any explicit
	// termination.
	StatusExpired Status = "EXPIRED"
	// StatusTerminated marks a session closed by logout or a forced security
	// termination.
	StatusTerminated Status = "TERMINATED"
	// StatusInvalid marks a record that never represented a usable session.
	StatusInvalid Status = "INVALID"
)

// Session is one authenticated interaction window bound to a card and an
// ATM. Records are marked terminal rather than deleted so audits can still
// observe them until the retention pass removes them.
type Session struct {
	Token             string        `json:"token"`
	CardToken         string        `json:"cardToken"`
	ATMCode           string        `json:"atmCode"`
	Status            Status        `json:"status"`
	StartedAt         time.Time     `json:"startedAt"`
	LastActivityAt    time.Time     `json:"lastActivityAt"`
	ExpiresAt         time.Time     `json:"expiresAt"`
	TerminatedAt      time.Time     `json:"terminatedAt"`
	TerminationReason string        `json:"terminationReason,omitempty"`
	CallCount         int           `json:"callCount"`
	Timeout           time.Duration `json:"timeout"`
}

// IsActive reports whether the session is usable at the given instant: the
// status is Active and the expiry has not passed.
func (s *Session) IsActive(now time.Time) bool {
	if s == nil {
		return false
	}

	return s.Status == StatusActive && now.Before(s.ExpiresAt)
}
