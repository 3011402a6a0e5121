package domain

import "time"

// AuditAction captures what a workflow audit entry records.
type AuditAction string

const (
	AuditActionStageAdvanced   AuditAction = "STAGE_ADVANCED"
	AuditActionAdvanceRejected AuditAction = "ADVANCE_REJECTED"
	AuditActionBatchAdvanced   AuditAction = "BATCH_ADVANCED"
)

// WorkflowAuditEntry is an immutable record of a workflow transition
// attempt. Entries are appended once and never updated or deleted.
type WorkflowAuditEntry struct {
	ID         string
	EntityType string
	EntityID   string
	Action     AuditAction
	UserID     *string
	FromStage  string
	ToStage    string
	Details    map[string]any
	CreatedAt  time.Time
}
