package workflow

import (
	"context"
	"strings"

	"github.com/carebridge/referral-service/internal/domain"
)

// StaffCounter answers roster headcount questions for validation.
type StaffCounter interface {
	CountActiveInDepartment(ctx context.Context, department string) (int, error)
}

// ValidationResult reports whether a referral may enter the target
// stage. Reason concatenates all failing checks; RequiredActions carry
// the parallel remediation hints.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	Reason          string   `json:"reason,omitempty"`
	RequiredActions []string `json:"required_actions,omitempty"`
}

// RuleValidator runs the per-stage precondition checks. All checks are
// read-only, so Validate is safe to call repeatedly.
type RuleValidator struct {
	staff StaffCounter
}

// NewRuleValidator constructs the validator.
func NewRuleValidator(staff StaffCounter) *RuleValidator {
	return &RuleValidator{staff: staff}
}

// Validate checks whether referral may enter target. Every failing
// check for the stage is accumulated rather than returning on the
// first failure.
func (v *RuleValidator) Validate(ctx context.Context, referral *domain.Referral, target Stage) (ValidationResult, error) {
	var reasons []string
	var actions []string

	fail := func(reason, action string) {
		reasons = append(reasons, reason)
		actions = append(actions, action)
	}

	switch target {
	case StageDataVerified:
		if !validNDISNumber(referral.NDISNumber) {
			fail("NDIS number missing or invalid", "Obtain valid NDIS number from participant")
		}
		if strings.TrimSpace(referral.PrimaryDisability) == "" {
			fail("primary disability not recorded", "Record the participant's primary disability")
		}
	case StageAgreementPrepared:
		if strings.TrimSpace(referral.FullName()) == "" {
			fail("participant name missing", "Complete the participant's name on the referral")
		}
		if referral.ServiceType == "" {
			fail("service type not selected", "Select the requested service type")
		}
	case StageFundingVerification:
		if referral.ServiceType == "" {
			fail("service type not selected", "Select the requested service type")
		}
	case StageStaffAllocation:
		count, err := v.staff.CountActiveInDepartment(ctx, domain.DepartmentServiceDelivery)
		if err != nil {
			return ValidationResult{}, err
		}
		if count == 0 {
			fail("no active service delivery staff available", "Activate or recruit service delivery staff before allocation")
		}
	}

	if len(reasons) > 0 {
		return ValidationResult{
			Valid:           false,
			Reason:          strings.Join(reasons, "; "),
			RequiredActions: actions,
		}, nil
	}
	return ValidationResult{Valid: true}, nil
}

// validNDISNumber accepts the scheme's 9-digit participant numbers.
func validNDISNumber(n string) bool {
	n = strings.TrimSpace(n)
	if len(n) != 9 {
		return false
	}
	for _, ch := range n {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
