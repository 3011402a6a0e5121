package workflow

import "github.com/carebridge/referral-service/internal/domain"

// Stage is one named step in the onboarding progression.
type Stage string

const (
	StageReferralReceived      Stage = "referral_received"
	StageDataVerified          Stage = "data_verified"
	StageAgreementPrepared     Stage = "service_agreement_prepared"
	StageAgreementSent         Stage = "agreement_sent"
	StageAgreementSigned       Stage = "agreement_signed"
	StageFundingVerification   Stage = "funding_verification"
	StageFundingVerified       Stage = "funding_verified"
	StageStaffAllocation       Stage = "staff_allocation"
	StageStaffAllocated        Stage = "staff_allocated"
	StageCommencementScheduled Stage = "service_commencement_scheduled"
	StageServiceCommenced      Stage = "service_commenced"
)

// orderedStages is the base progression. Advancement is monotonic along
// this order except for the two routing overrides in NextStage.
var orderedStages = []Stage{
	StageReferralReceived,
	StageDataVerified,
	StageAgreementPrepared,
	StageAgreementSent,
	StageAgreementSigned,
	StageFundingVerification,
	StageFundingVerified,
	StageStaffAllocation,
	StageStaffAllocated,
	StageCommencementScheduled,
	StageServiceCommenced,
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(orderedStages))
	for i, s := range orderedStages {
		m[s] = i
	}
	return m
}()

// Stages returns the base progression in order.
func Stages() []Stage {
	out := make([]Stage, len(orderedStages))
	copy(out, orderedStages)
	return out
}

// IsValid reports whether s names a known stage.
func (s Stage) IsValid() bool {
	_, ok := stageIndex[s]
	return ok
}

// IsTerminal reports whether s is the final stage.
func (s Stage) IsTerminal() bool {
	return s == StageServiceCommenced
}

// String returns the stage name.
func (s Stage) String() string {
	return string(s)
}

// RouteContext carries the referral fields that influence routing.
type RouteContext struct {
	UrgencyLevel domain.UrgencyLevel
	ServiceType  domain.ServiceType
}

// NextStage computes the stage a referral should advance to from
// current. Override rules are applied before the base order:
//
//   - critical referrals skip the agreement stages once data is verified
//   - support coordination routes straight to staff allocation after
//     funding is verified
//
// Returns false when current is terminal or unrecognized; callers must
// treat that as "no further automatic progression".
func NextStage(current Stage, rc RouteContext) (Stage, bool) {
	if current == StageDataVerified && rc.UrgencyLevel == domain.UrgencyCritical {
		return StageFundingVerification, true
	}
	if current == StageFundingVerified && rc.ServiceType == domain.ServiceSupportCoordination {
		return StageStaffAllocation, true
	}

	idx, ok := stageIndex[current]
	if !ok || current.IsTerminal() {
		return "", false
	}
	return orderedStages[idx+1], true
}
