package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/events"
	"github.com/carebridge/referral-service/internal/matching"
	"github.com/carebridge/referral-service/internal/repository"
	apperrors "github.com/carebridge/referral-service/pkg/util"
)

type fakeStaffRepo struct {
	staff []domain.StaffProfile
}

func (r *fakeStaffRepo) GetByID(ctx context.Context, id string) (*domain.StaffProfile, error) {
	for i := range r.staff {
		if r.staff[i].ID == id {
			out := r.staff[i]
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStaffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffProfile, error) {
	out := []domain.StaffProfile{}
	for _, s := range r.staff {
		if filter.Department != nil && s.Department != *filter.Department {
			continue
		}
		if filter.Active != nil && s.Active != *filter.Active {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeStaffRepo) CountActiveInDepartment(ctx context.Context, department string) (int, error) {
	n := 0
	for _, s := range r.staff {
		if s.Department == department && s.Active {
			n++
		}
	}
	return n, nil
}

type fakeParticipantRepo struct {
	participants map[string]domain.Participant
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	p, ok := r.participants[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := p
	return &out, nil
}

type fakeShiftRepo struct {
	upcoming map[string]int
	prior    map[string]int
}

func (r *fakeShiftRepo) CountUpcomingByStaff(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return r.upcoming, nil
}

func (r *fakeShiftRepo) CountDeliveredToParticipant(ctx context.Context, participantID string) (map[string]int, error) {
	return r.prior, nil
}

func supportWorker(id string, active bool) domain.StaffProfile {
	return domain.StaffProfile{
		ID:               id,
		Name:             "Worker " + id,
		Department:       domain.DepartmentServiceDelivery,
		Qualifications:   []string{"personal_care_certificate", "disability_support"},
		Languages:        []string{"english"},
		Gender:           "female",
		Latitude:         -33.8688,
		Longitude:        151.2093,
		YearsExperience:  8,
		ReliabilityScore: 4.5,
		Active:           active,
	}
}

func newMatchingFixture(staff []domain.StaffProfile, participants map[string]domain.Participant) (*MatchingService, *eventRecorder) {
	dispatcher := events.NewInMemoryDispatcher()
	recorder := &eventRecorder{}
	recorder.attach(dispatcher, events.EventStaffMatched)

	svc := NewMatchingService(MatchingDependencies{
		StaffRepo:       &fakeStaffRepo{staff: staff},
		ParticipantRepo: &fakeParticipantRepo{participants: participants},
		ShiftRepo:       &fakeShiftRepo{upcoming: map[string]int{}, prior: map[string]int{}},
		Dispatcher:      dispatcher,
		Logger:          zap.NewNop(),
	})
	return svc, recorder
}

func TestMatchParticipantRanksActiveServiceDeliveryStaff(t *testing.T) {
	participant := domain.Participant{
		ID:        "p1",
		FirstName: "Ella",
		Latitude:  -33.8688,
		Longitude: 151.2093,
	}
	staff := []domain.StaffProfile{
		supportWorker("s1", true),
		supportWorker("s2", true),
		supportWorker("inactive", false),
		{ID: "admin", Department: "administration", Active: true},
	}
	svc, recorder := newMatchingFixture(staff, map[string]domain.Participant{"p1": participant})

	result, err := svc.MatchParticipant(context.Background(), "p1", domain.ServiceRequirements{
		ServiceType: domain.ServicePersonalCare,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalCandidates, "inactive and non-delivery staff are excluded")
	require.Len(t, result.Matches, 2)
	for _, m := range result.Matches {
		assert.True(t, m.Qualified, m.StaffID)
		assert.GreaterOrEqual(t, m.OverallScore, matching.QualifiedThreshold)
	}
	assert.Equal(t, 2, result.QualifiedCount)
	assert.Len(t, recorder.ofType(events.EventStaffMatched), 1)
}

func TestMatchParticipantFillsPreferencesFromProfile(t *testing.T) {
	participant := domain.Participant{
		ID:                 "p1",
		PreferredLanguages: []string{"vietnamese"},
		PreferredGender:    "female",
		Latitude:           -33.8688,
		Longitude:          151.2093,
	}
	svc, _ := newMatchingFixture([]domain.StaffProfile{supportWorker("s1", true)},
		map[string]domain.Participant{"p1": participant})

	result, err := svc.MatchParticipant(context.Background(), "p1", domain.ServiceRequirements{
		ServiceType: domain.ServicePersonalCare,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"vietnamese"}, result.Requirements.PreferredLanguages)
	assert.Equal(t, "female", result.Requirements.PreferredGender)
}

func TestMatchParticipantNotFound(t *testing.T) {
	svc, _ := newMatchingFixture(nil, map[string]domain.Participant{})

	_, err := svc.MatchParticipant(context.Background(), "missing", domain.ServiceRequirements{
		ServiceType: domain.ServicePersonalCare,
	})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 404, domainErr.HTTPStatus)
}

func TestInvalidateAvailabilityWithoutBackingCache(t *testing.T) {
	svc, _ := newMatchingFixture(nil, nil)
	assert.NotPanics(t, func() { svc.InvalidateAvailability(context.Background()) })
}

func TestMatchForReferralWithoutLinkedParticipant(t *testing.T) {
	svc, _ := newMatchingFixture([]domain.StaffProfile{
		supportWorker("s1", true),
		supportWorker("s2", true),
	}, map[string]domain.Participant{})

	referral := &domain.Referral{
		ID:           "ref-1",
		ServiceType:  domain.ServicePersonalCare,
		UrgencyLevel: domain.UrgencyHigh,
	}
	summary, err := svc.MatchForReferral(context.Background(), referral)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.NotEmpty(t, summary.TopStaffID)
	assert.NotEmpty(t, summary.TopStaffName)
}

func TestMatchForReferralUsesLinkedParticipantPreferences(t *testing.T) {
	participantID := "p1"
	participant := domain.Participant{
		ID:              participantID,
		PreferredGender: "male",
		Latitude:        -33.8688,
		Longitude:       151.2093,
	}
	// the only worker mismatches the gender preference; still ranked,
	// just scored lower on the preference axis
	svc, _ := newMatchingFixture([]domain.StaffProfile{supportWorker("s1", true)},
		map[string]domain.Participant{participantID: participant})

	referral := &domain.Referral{
		ID:            "ref-1",
		ParticipantID: &participantID,
		ServiceType:   domain.ServicePersonalCare,
	}
	summary, err := svc.MatchForReferral(context.Background(), referral)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
}

func TestMatchParticipantCachesProfileLookups(t *testing.T) {
	participant := domain.Participant{ID: "p1", Latitude: -33.8688, Longitude: 151.2093}
	repo := &fakeParticipantRepo{participants: map[string]domain.Participant{"p1": participant}}

	svc := NewMatchingService(MatchingDependencies{
		StaffRepo:       &fakeStaffRepo{staff: []domain.StaffProfile{supportWorker("s1", true)}},
		ParticipantRepo: repo,
		ShiftRepo:       &fakeShiftRepo{upcoming: map[string]int{}, prior: map[string]int{}},
		Logger:          zap.NewNop(),
	})

	_, err := svc.MatchParticipant(context.Background(), "p1", domain.ServiceRequirements{ServiceType: domain.ServicePersonalCare})
	require.NoError(t, err)

	// drop the backing record; the cached profile keeps serving
	delete(repo.participants, "p1")
	_, err = svc.MatchParticipant(context.Background(), "p1", domain.ServiceRequirements{ServiceType: domain.ServicePersonalCare})
	assert.NoError(t, err)
}
