package entity

import "time"

// Outcome is the result of one fallback step.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// ProviderAttempt is an ephemeral audit record of one fallback step. It is logged, never persisted.
type ProviderAttempt struct {
	ProviderID string        `json:"providerId"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	Outcome    Outcome       `json:"outcome"`
	ErrorKind  string        `json:"errorKind,omitempty"`
	Error      string        `json:"error,omitempty"`
}
