package events

import (
	"time"

	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/workflow"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReferralStageChanged EventType = "referral_stage_changed"
	EventAdvanceRejected      EventType = "referral_advance_rejected"
	EventAgreementGenerated   EventType = "service_agreement_generated"
	EventAgreementDispatched  EventType = "service_agreement_dispatched"
	EventStaffMatched         EventType = "staff_matched"
	EventStageLatencyAlert    EventType = "stage_latency_alert"
	EventBatchCompleted       EventType = "workflow_batch_completed"
	EventFailureRecorded      EventType = "workflow_failure_recorded"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ReferralID string      `json:"referral_id,omitempty"`
	UserID     *string     `json:"user_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// StageChangedPayload payload.
type StageChangedPayload struct {
	FromStage workflow.Stage `json:"from_stage"`
	ToStage   workflow.Stage `json:"to_stage"`
	Automated bool           `json:"automated"`
}

// AdvanceRejectedPayload payload.
type AdvanceRejectedPayload struct {
	TargetStage     workflow.Stage `json:"target_stage"`
	Reason          string         `json:"reason"`
	RequiredActions []string       `json:"required_actions,omitempty"`
}

// AgreementGeneratedPayload payload.
type AgreementGeneratedPayload struct {
	AgreementID string  `json:"agreement_id"`
	MonthlyCost float64 `json:"monthly_cost"`
	AnnualCost  float64 `json:"annual_cost"`
}

// AgreementDispatchedPayload payload.
type AgreementDispatchedPayload struct {
	Summary string `json:"summary"`
}

// StaffMatchedPayload payload.
type StaffMatchedPayload struct {
	ParticipantID  string             `json:"participant_id,omitempty"`
	ServiceType    domain.ServiceType `json:"service_type"`
	QualifiedCount int                `json:"qualified_count"`
	TopStaffID     string             `json:"top_staff_id,omitempty"`
}

// StageLatencyAlertPayload payload.
type StageLatencyAlertPayload struct {
	Stage       workflow.Stage `json:"stage"`
	AverageMs   float64        `json:"average_ms"`
	ThresholdMs float64        `json:"threshold_ms"`
	Samples     int            `json:"samples"`
}

// BatchCompletedPayload payload.
type BatchCompletedPayload struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Rounds    int `json:"rounds"`
}

// FailureRecordedPayload payload.
type FailureRecordedPayload struct {
	TargetStage workflow.Stage `json:"target_stage"`
	Attempts    int            `json:"attempts"`
	LastError   string         `json:"last_error"`
}
