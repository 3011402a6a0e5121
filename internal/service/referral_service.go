package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/repository"
	"github.com/carebridge/referral-service/internal/workflow"
	apperrors "github.com/carebridge/referral-service/pkg/util"
)

// ReferralCreateInput describes intake payload.
type ReferralCreateInput struct {
	ParticipantID     *string
	FirstName         string
	LastName          string
	NDISNumber        string
	PrimaryDisability string
	ServiceType       domain.ServiceType
	UrgencyLevel      domain.UrgencyLevel
	Notes             string
}

// ReferralListFilter describes listing filters.
type ReferralListFilter struct {
	WorkflowStatuses []string
	ServiceType      *domain.ServiceType
	UrgencyLevel     *domain.UrgencyLevel
	SearchTerm       *string
	Limit            int
	Offset           int
}

// ReferralService owns intake CRUD. The workflow status field is only
// ever written by the orchestrator after creation.
type ReferralService struct {
	referrals repository.ReferralRepository
	audit     repository.AuditRepository
}

// NewReferralService constructs the service.
func NewReferralService(referrals repository.ReferralRepository, audit repository.AuditRepository) *ReferralService {
	return &ReferralService{referrals: referrals, audit: audit}
}

// Create registers a new referral at the initial workflow stage.
func (s *ReferralService) Create(ctx context.Context, input ReferralCreateInput) (*domain.Referral, error) {
	if strings.TrimSpace(input.FirstName) == "" && strings.TrimSpace(input.LastName) == "" {
		return nil, apperrors.NewValidationError("participant name required", nil)
	}
	if input.UrgencyLevel == "" {
		input.UrgencyLevel = domain.UrgencyMedium
	}

	referral := &domain.Referral{
		ParticipantID:     input.ParticipantID,
		FirstName:         strings.TrimSpace(input.FirstName),
		LastName:          strings.TrimSpace(input.LastName),
		NDISNumber:        strings.TrimSpace(input.NDISNumber),
		PrimaryDisability: strings.TrimSpace(input.PrimaryDisability),
		ServiceType:       input.ServiceType,
		UrgencyLevel:      input.UrgencyLevel,
		WorkflowStatus:    workflow.StageReferralReceived.String(),
		Notes:             input.Notes,
	}
	if err := s.referrals.Create(ctx, referral); err != nil {
		return nil, apperrors.MapError(err)
	}
	return referral, nil
}

// Get fetches a referral with its recent workflow history.
func (s *ReferralService) Get(ctx context.Context, id string) (*domain.Referral, []domain.WorkflowAuditEntry, error) {
	referral, err := s.referrals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("referral", map[string]any{"referral_id": id})
		}
		return nil, nil, apperrors.MapError(err)
	}
	history, err := s.audit.ListByReferral(ctx, id, 50, 0)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return referral, history, nil
}

// List returns referrals matching the filter.
func (s *ReferralService) List(ctx context.Context, filter ReferralListFilter) ([]domain.Referral, error) {
	referrals, err := s.referrals.List(ctx, repository.ReferralFilter{
		WorkflowStatuses: filter.WorkflowStatuses,
		ServiceType:      filter.ServiceType,
		UrgencyLevel:     filter.UrgencyLevel,
		SearchTerm:       filter.SearchTerm,
		Limit:            filter.Limit,
		Offset:           filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return referrals, nil
}
