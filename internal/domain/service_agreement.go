package domain

import "time"

// AgreementStatus enumerates the service agreement lifecycle.
type AgreementStatus string

const (
	AgreementStatusDraft  AgreementStatus = "draft"
	AgreementStatusSent   AgreementStatus = "sent"
	AgreementStatusSigned AgreementStatus = "signed"
)

// ServiceAgreement is the generated contract artifact produced when a
// referral enters the agreement-prepared stage.
type ServiceAgreement struct {
	ID            string
	ReferralID    string
	ParticipantID *string
	Status        AgreementStatus
	TemplateData  map[string]any
	MonthlyCost   float64
	AnnualCost    float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
