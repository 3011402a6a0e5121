package dto

import (
	"github.com/carebridge/referral-service/internal/domain"
)

// AdvanceRequest payload. TargetStage is optional; when empty the
// orchestrator routes to the next stage itself.
type AdvanceRequest struct {
	TargetStage string  `json:"target_stage"`
	UserID      *string `json:"user_id"`
}

// AdvanceBatchRequest payload.
type AdvanceBatchRequest struct {
	ReferralIDs  []string `json:"referral_ids"`
	TargetStages []string `json:"target_stages"`
	UserID       *string  `json:"user_id"`
}

// MatchRequest payload.
type MatchRequest struct {
	ServiceType        domain.ServiceType  `json:"service_type"`
	UrgencyLevel       domain.UrgencyLevel `json:"urgency_level"`
	PreferredLanguages []string            `json:"preferred_languages"`
	PreferredGender    string              `json:"preferred_gender"`
}
