package domain

import "time"

// UrgencyLevel enumerates intake urgency.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "LOW"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyCritical UrgencyLevel = "CRITICAL"
)

// ServiceType enumerates NDIS support categories handled by the provider.
type ServiceType string

const (
	ServicePersonalCare        ServiceType = "personal_care"
	ServiceCommunityAccess     ServiceType = "community_access"
	ServiceSupportCoordination ServiceType = "support_coordination"
	ServiceHouseholdTasks      ServiceType = "household_tasks"
	ServiceSupportedLiving     ServiceType = "supported_independent_living"
)

// Referral is the intake aggregate driving the onboarding workflow.
// WorkflowStatus is mutated only by the workflow orchestrator; all other
// fields are owned by intake CRUD. Referrals are never hard-deleted.
type Referral struct {
	ID                string
	ParticipantID     *string
	FirstName         string
	LastName          string
	NDISNumber        string
	PrimaryDisability string
	ServiceType       ServiceType
	UrgencyLevel      UrgencyLevel
	WorkflowStatus    string
	Notes             string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FullName joins the intake name fields.
func (r *Referral) FullName() string {
	if r.FirstName == "" {
		return r.LastName
	}
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}
