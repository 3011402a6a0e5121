package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/referral-service/internal/domain"
)

func TestNextStageBaseOrder(t *testing.T) {
	rc := RouteContext{UrgencyLevel: domain.UrgencyMedium, ServiceType: domain.ServicePersonalCare}

	current := StageReferralReceived
	visited := []Stage{current}
	for {
		next, ok := NextStage(current, rc)
		if !ok {
			break
		}
		visited = append(visited, next)
		current = next
	}

	assert.Equal(t, Stages(), visited)
	assert.True(t, current.IsTerminal())
}

func TestNextStageCriticalSkipsAgreementStages(t *testing.T) {
	rc := RouteContext{UrgencyLevel: domain.UrgencyCritical, ServiceType: domain.ServicePersonalCare}

	next, ok := NextStage(StageDataVerified, rc)
	require.True(t, ok)
	assert.Equal(t, StageFundingVerification, next)

	// the override applies only at data_verified
	next, ok = NextStage(StageFundingVerification, rc)
	require.True(t, ok)
	assert.Equal(t, StageFundingVerified, next)
}

func TestNextStageSupportCoordinationRouting(t *testing.T) {
	rc := RouteContext{UrgencyLevel: domain.UrgencyLow, ServiceType: domain.ServiceSupportCoordination}

	next, ok := NextStage(StageFundingVerified, rc)
	require.True(t, ok)
	assert.Equal(t, StageStaffAllocation, next)
}

func TestNextStageTerminalAndUnknown(t *testing.T) {
	rc := RouteContext{}

	_, ok := NextStage(StageServiceCommenced, rc)
	assert.False(t, ok)

	_, ok = NextStage(Stage("made_up_stage"), rc)
	assert.False(t, ok)
}

func TestStageProgressionIsBounded(t *testing.T) {
	// whatever the routing context, a referral reaches the terminal
	// stage in at most len(Stages())-1 hops
	contexts := []RouteContext{
		{},
		{UrgencyLevel: domain.UrgencyCritical},
		{ServiceType: domain.ServiceSupportCoordination},
		{UrgencyLevel: domain.UrgencyCritical, ServiceType: domain.ServiceSupportCoordination},
	}

	for _, rc := range contexts {
		current := StageReferralReceived
		hops := 0
		for {
			next, ok := NextStage(current, rc)
			if !ok {
				break
			}
			current = next
			hops++
			require.LessOrEqual(t, hops, len(Stages())-1, "routing context %+v must not loop", rc)
		}
		assert.True(t, current.IsTerminal(), "routing context %+v must end at the terminal stage", rc)
	}
}

func TestStageValidity(t *testing.T) {
	for _, s := range Stages() {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, Stage("nope").IsValid())
}
