package models

import (
	"time"
)

// SessionStatus describes the lifecycle state of a generation session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionExpired   SessionStatus = "expired"
)

// Tier is the billing tier a session was opened under.
type Tier string

const (
	TierTrial     Tier = "trial"
	TierPaid      Tier = "paid"
	TierUnlimited Tier = "unlimited"
)

// MaxAttempts is the number of draft attempts a single session allows.
// The quota debit happens once per session, not per attempt.
const MaxAttempts = 3

// SessionIdleTimeout is how long a session may sit untouched before the
// next access treats it as absent and opens a fresh one.
const SessionIdleTimeout = 30 * time.Minute

// GenerationSession is a bounded sequence of draft attempts tied to one
// topic and category. At most one active session exists per owner.
type GenerationSession struct {
	ID          string        `json:"id" db:"id"`
	OwnerID     string        `json:"owner_id" db:"owner_id"`
	Category    string        `json:"category" db:"category"`
	Topic       string        `json:"topic" db:"topic"`
	Tier        Tier          `json:"tier" db:"tier"`
	Attempts    int           `json:"attempts" db:"attempts"`
	MaxAttempts int           `json:"max_attempts" db:"max_attempts"`
	Status      SessionStatus `json:"status" db:"status"`
	StartedAt   time.Time     `json:"started_at" db:"started_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ExpiredAt reports whether the session has passed the idle threshold
// as of now.
func (s *GenerationSession) ExpiredAt(now time.Time) bool {
	return now.Sub(s.StartedAt) > SessionIdleTimeout
}

// Exhausted reports whether all attempts have been consumed.
func (s *GenerationSession) Exhausted() bool {
	return s.Attempts >= s.MaxAttempts
}
