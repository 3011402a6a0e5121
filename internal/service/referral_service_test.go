package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/workflow"
	apperrors "github.com/carebridge/referral-service/pkg/util"
)

func TestReferralCreateStartsAtInitialStage(t *testing.T) {
	referrals := newFakeReferralRepo()
	svc := NewReferralService(referrals, &fakeAuditRepo{})

	referral, err := svc.Create(context.Background(), ReferralCreateInput{
		FirstName:         "  Harper ",
		LastName:          "Singh",
		NDISNumber:        "430555111",
		PrimaryDisability: "acquired brain injury",
		ServiceType:       domain.ServiceCommunityAccess,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, referral.ID)
	assert.Equal(t, "Harper", referral.FirstName)
	assert.Equal(t, workflow.StageReferralReceived.String(), referral.WorkflowStatus)
	assert.Equal(t, domain.UrgencyMedium, referral.UrgencyLevel, "urgency defaults to medium")
	assert.Equal(t, int64(1), referral.Version)
}

func TestReferralCreateRequiresName(t *testing.T) {
	svc := NewReferralService(newFakeReferralRepo(), &fakeAuditRepo{})

	_, err := svc.Create(context.Background(), ReferralCreateInput{NDISNumber: "430555111"})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 400, domainErr.HTTPStatus)
}

func TestReferralGetIncludesHistory(t *testing.T) {
	referrals := newFakeReferralRepo()
	audit := &fakeAuditRepo{}
	referrals.put(completeReferral("ref-1", workflow.StageDataVerified))
	require.NoError(t, audit.Append(context.Background(), &domain.WorkflowAuditEntry{
		EntityType: "referral",
		EntityID:   "ref-1",
		Action:     domain.AuditActionStageAdvanced,
		FromStage:  workflow.StageReferralReceived.String(),
		ToStage:    workflow.StageDataVerified.String(),
	}))

	svc := NewReferralService(referrals, audit)
	referral, history, err := svc.Get(context.Background(), "ref-1")
	require.NoError(t, err)

	assert.Equal(t, "ref-1", referral.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.AuditActionStageAdvanced, history[0].Action)
}

func TestReferralGetNotFound(t *testing.T) {
	svc := NewReferralService(newFakeReferralRepo(), &fakeAuditRepo{})

	_, _, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 404, domainErr.HTTPStatus)
}
