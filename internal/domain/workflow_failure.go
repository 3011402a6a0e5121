package domain

import "time"

// WorkflowFailure is a dead-letter record for a batch item that
// exhausted its retries. The retry worker re-runs unresolved entries.
type WorkflowFailure struct {
	ID          string
	ReferralID  string
	TargetStage string
	Attempts    int
	LastError   string
	Resolved    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
