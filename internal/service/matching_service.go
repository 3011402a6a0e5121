package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/carebridge/referral-service/internal/cache"
	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/events"
	"github.com/carebridge/referral-service/internal/matching"
	"github.com/carebridge/referral-service/internal/repository"
	"github.com/carebridge/referral-service/internal/workflow"
	apperrors "github.com/carebridge/referral-service/pkg/util"
)

// MatchingResult is returned to callers of the matching operation.
type MatchingResult struct {
	ParticipantID   string                     `json:"participant_id"`
	Requirements    domain.ServiceRequirements `json:"requirements"`
	Matches         []domain.StaffMatch        `json:"matches"`
	TotalCandidates int                        `json:"total_candidates"`
	QualifiedCount  int                        `json:"qualified_count"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

// MatchingDependencies bundles collaborators for the matching service.
type MatchingDependencies struct {
	StaffRepo       repository.StaffRepository
	ParticipantRepo repository.ParticipantRepository
	ShiftRepo       repository.ShiftRepository
	Availability    *cache.AvailabilityCache
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	LookaheadDays   int
}

// MatchingService scores and ranks staff against participant service
// requirements.
type MatchingService struct {
	staff        repository.StaffRepository
	participants repository.ParticipantRepository
	shifts       repository.ShiftRepository
	engine       *matching.Engine
	availability *cache.AvailabilityCache
	// participantCache keeps recently matched participants in-process;
	// participant records change rarely relative to matching calls.
	participantCache *gocache.Cache
	dispatcher       events.Dispatcher
	logger           *zap.Logger
	lookahead        time.Duration
	now              func() time.Time
}

// NewMatchingService constructs the service.
func NewMatchingService(deps MatchingDependencies) *MatchingService {
	lookaheadDays := deps.LookaheadDays
	if lookaheadDays <= 0 {
		lookaheadDays = 7
	}
	return &MatchingService{
		staff:            deps.StaffRepo,
		participants:     deps.ParticipantRepo,
		shifts:           deps.ShiftRepo,
		engine:           matching.NewEngine(),
		availability:     deps.Availability,
		participantCache: gocache.New(2*time.Minute, 5*time.Minute),
		dispatcher:       deps.Dispatcher,
		logger:           deps.Logger,
		lookahead:        time.Duration(lookaheadDays) * 24 * time.Hour,
		now:              time.Now,
	}
}

// MatchParticipant ranks active service delivery staff for the given
// participant and requirements.
func (s *MatchingService) MatchParticipant(ctx context.Context, participantID string, req domain.ServiceRequirements) (*MatchingResult, error) {
	participant, err := s.loadParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("participant", map[string]any{"participant_id": participantID})
		}
		return nil, apperrors.MapError(err)
	}

	if len(req.PreferredLanguages) == 0 {
		req.PreferredLanguages = participant.PreferredLanguages
	}
	if req.PreferredGender == "" {
		req.PreferredGender = participant.PreferredGender
	}

	matches, total, err := s.rank(ctx, participant, participant.ID, req)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &MatchingResult{
		ParticipantID:   participantID,
		Requirements:    req,
		Matches:         matches,
		TotalCandidates: total,
		QualifiedCount:  countQualified(matches),
		GeneratedAt:     s.now(),
	}
	s.publishMatched(ctx, participantID, req.ServiceType, result)
	return result, nil
}

// MatchForReferral implements workflow.Matcher for the allocation
// stage. Referrals without a linked participant are matched on the
// intake fields alone.
func (s *MatchingService) MatchForReferral(ctx context.Context, referral *domain.Referral) (workflow.MatchSummary, error) {
	req := domain.ServiceRequirements{
		ServiceType:  referral.ServiceType,
		UrgencyLevel: referral.UrgencyLevel,
	}

	var participant *domain.Participant
	participantID := ""
	if referral.ParticipantID != nil {
		p, err := s.loadParticipant(ctx, *referral.ParticipantID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return workflow.MatchSummary{}, err
		}
		if p != nil {
			participant = p
			participantID = p.ID
			req.PreferredLanguages = p.PreferredLanguages
			req.PreferredGender = p.PreferredGender
		}
	}

	matches, total, err := s.rank(ctx, participant, participantID, req)
	if err != nil {
		return workflow.MatchSummary{}, err
	}

	summary := workflow.MatchSummary{
		Total:          total,
		QualifiedCount: countQualified(matches),
	}
	if len(matches) > 0 {
		summary.TopStaffID = matches[0].StaffID
		summary.TopStaffName = matches[0].StaffName
	}
	return summary, nil
}

func (s *MatchingService) rank(ctx context.Context, participant *domain.Participant, participantID string, req domain.ServiceRequirements) ([]domain.StaffMatch, int, error) {
	department := domain.DepartmentServiceDelivery
	active := true
	candidates, err := s.staff.List(ctx, repository.StaffFilter{
		Department: &department,
		Active:     &active,
	})
	if err != nil {
		return nil, 0, err
	}

	signals, err := s.signals(ctx, participantID)
	if err != nil {
		return nil, 0, err
	}

	return s.engine.Rank(participant, req, candidates, signals), len(candidates), nil
}

func (s *MatchingService) signals(ctx context.Context, participantID string) (matching.Signals, error) {
	sig := matching.Signals{}

	day := s.now().Format("2006-01-02")
	if counts, ok := s.availability.Get(ctx, day); ok {
		sig.UpcomingShifts = counts
	} else {
		from := s.now()
		counts, err := s.shifts.CountUpcomingByStaff(ctx, from, from.Add(s.lookahead))
		if err != nil {
			return sig, err
		}
		sig.UpcomingShifts = counts
		s.availability.Set(ctx, day, counts)
	}

	if participantID != "" {
		prior, err := s.shifts.CountDeliveredToParticipant(ctx, participantID)
		if err != nil {
			return sig, err
		}
		sig.PriorShiftsWithParticipant = prior
	}
	return sig, nil
}

// InvalidateAvailability drops the cached roster-load window. Callers
// invoke it when allocations land, since the per-staff shift counts
// shift underneath the cache.
func (s *MatchingService) InvalidateAvailability(ctx context.Context) {
	s.availability.Invalidate(ctx, s.now().Format("2006-01-02"))
}

func (s *MatchingService) loadParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	if cached, ok := s.participantCache.Get(id); ok {
		if p, ok := cached.(*domain.Participant); ok {
			return p, nil
		}
	}
	p, err := s.participants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.participantCache.Set(id, p, gocache.DefaultExpiration)
	return p, nil
}

func (s *MatchingService) publishMatched(ctx context.Context, participantID string, serviceType domain.ServiceType, result *MatchingResult) {
	if s.dispatcher == nil {
		return
	}
	payload := events.StaffMatchedPayload{
		ParticipantID:  participantID,
		ServiceType:    serviceType,
		QualifiedCount: result.QualifiedCount,
	}
	if len(result.Matches) > 0 {
		payload.TopStaffID = result.Matches[0].StaffID
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventStaffMatched,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

func countQualified(matches []domain.StaffMatch) int {
	count := 0
	for _, m := range matches {
		if m.Qualified {
			count++
		}
	}
	return count
}
