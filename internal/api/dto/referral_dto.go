package dto

import (
	"time"

	"github.com/carebridge/referral-service/internal/domain"
)

// CreateReferralRequest payload.
type CreateReferralRequest struct {
	ParticipantID     *string             `json:"participant_id"`
	FirstName         string              `json:"first_name"`
	LastName          string              `json:"last_name"`
	NDISNumber        string              `json:"ndis_number"`
	PrimaryDisability string              `json:"primary_disability"`
	ServiceType       domain.ServiceType  `json:"service_type"`
	UrgencyLevel      domain.UrgencyLevel `json:"urgency_level"`
	Notes             string              `json:"notes"`
}

// ReferralResponse response.
type ReferralResponse struct {
	ID                string              `json:"id"`
	ParticipantID     *string             `json:"participant_id,omitempty"`
	FirstName         string              `json:"first_name"`
	LastName          string              `json:"last_name"`
	NDISNumber        string              `json:"ndis_number"`
	PrimaryDisability string              `json:"primary_disability"`
	ServiceType       domain.ServiceType  `json:"service_type"`
	UrgencyLevel      domain.UrgencyLevel `json:"urgency_level"`
	WorkflowStatus    string              `json:"workflow_status"`
	Notes             string              `json:"notes,omitempty"`
	Version           int64               `json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// AuditEntryResponse response.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	UserID    *string        `json:"user_id,omitempty"`
	FromStage string         `json:"from_stage"`
	ToStage   string         `json:"to_stage"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ReferralDetailResponse bundles a referral with recent history.
type ReferralDetailResponse struct {
	Referral ReferralResponse     `json:"referral"`
	History  []AuditEntryResponse `json:"history"`
}

// ReferralFromDomain maps a referral to its response shape.
func ReferralFromDomain(r *domain.Referral) ReferralResponse {
	return ReferralResponse{
		ID:                r.ID,
		ParticipantID:     r.ParticipantID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		NDISNumber:        r.NDISNumber,
		PrimaryDisability: r.PrimaryDisability,
		ServiceType:       r.ServiceType,
		UrgencyLevel:      r.UrgencyLevel,
		WorkflowStatus:    r.WorkflowStatus,
		Notes:             r.Notes,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// AuditEntryFromDomain maps an audit entry to its response shape.
func AuditEntryFromDomain(e domain.WorkflowAuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID,
		Action:    string(e.Action),
		UserID:    e.UserID,
		FromStage: e.FromStage,
		ToStage:   e.ToStage,
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
	}
}
