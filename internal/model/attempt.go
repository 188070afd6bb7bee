package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates attempt session states. Transitions only move
// forward: BROWSING → IN_PROGRESS → SUBMITTING → COMPLETED, with
// SUBMIT_FAILED as the retryable branch of SUBMITTING. A new test always
// means a fresh session, never a reset.
type SessionStatus string

const (
	SessionStatusBrowsing     SessionStatus = "BROWSING"
	SessionStatusInProgress   SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitting   SessionStatus = "SUBMITTING"
	SessionStatusSubmitFailed SessionStatus = "SUBMIT_FAILED"
	SessionStatusCompleted    SessionStatus = "COMPLETED"
)

// Active reports whether the status still owns the provider's attention
// (i.e. a new attempt must not be started).
func (s SessionStatus) Active() bool {
	switch s {
	case SessionStatusInProgress, SessionStatusSubmitting, SessionStatusSubmitFailed:
		return true
	}
	return false
}

// Attempt is the persisted record of a provider's run at a test.
type Attempt struct {
	ID               uuid.UUID     `json:"id"`
	TestID           uuid.UUID     `json:"test_id"`
	ProviderID       int           `json:"provider_id"`
	Status           SessionStatus `json:"status"`
	Score            *float64      `json:"score,omitempty"`
	Passed           *bool         `json:"passed,omitempty"`
	TimeSpentMinutes *float64      `json:"time_spent_minutes,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       *time.Time    `json:"finished_at,omitempty"`
}
