package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carebridge/referral-service/internal/domain"
)

func worker(id string, quals ...string) *domain.StaffProfile {
	return &domain.StaffProfile{ID: id, Name: "Worker " + id, Qualifications: quals}
}

func TestSkillScore(t *testing.T) {
	req := domain.ServiceRequirements{ServiceType: domain.ServicePersonalCare}

	tests := []struct {
		name  string
		quals []string
		want  float64
	}{
		{"all required held", []string{"personal_care_certificate", "disability_support"}, 100},
		{"half held", []string{"disability_support"}, 50},
		{"none held", []string{"forklift_licence"}, 0},
		{"case and whitespace tolerated", []string{" Personal_Care_Certificate ", "DISABILITY_SUPPORT"}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SkillScore(worker("w1", tt.quals...), nil, req, Signals{})
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSkillScoreUnknownServiceTypeUsesBaseline(t *testing.T) {
	req := domain.ServiceRequirements{ServiceType: domain.ServiceType("respite")}

	assert.InDelta(t, 100, SkillScore(worker("w1", "basic_disability_support"), nil, req, Signals{}), 1e-9)
	assert.InDelta(t, 0, SkillScore(worker("w2"), nil, req, Signals{}), 1e-9)
}

func TestAvailabilityScore(t *testing.T) {
	sig := Signals{UpcomingShifts: map[string]int{"busy": 10, "half": 5}}

	assert.InDelta(t, 100, AvailabilityScore(worker("free"), nil, domain.ServiceRequirements{}, sig), 1e-9)
	assert.InDelta(t, 50, AvailabilityScore(worker("half"), nil, domain.ServiceRequirements{}, sig), 1e-9)
	assert.InDelta(t, 0, AvailabilityScore(worker("busy"), nil, domain.ServiceRequirements{}, sig), 1e-9)
}

func TestLocationScore(t *testing.T) {
	// Sydney CBD
	participant := &domain.Participant{Latitude: -33.8688, Longitude: 151.2093}

	sameSpot := &domain.StaffProfile{Latitude: -33.8688, Longitude: 151.2093}
	assert.InDelta(t, 100, LocationScore(sameSpot, participant, domain.ServiceRequirements{}, Signals{}), 1e-9)

	// Parramatta, roughly 20km west: partial score strictly between 0 and 100
	parramatta := &domain.StaffProfile{Latitude: -33.8150, Longitude: 151.0011}
	score := LocationScore(parramatta, participant, domain.ServiceRequirements{}, Signals{})
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 100.0)

	// Newcastle, well beyond max travel range
	newcastle := &domain.StaffProfile{Latitude: -32.9283, Longitude: 151.7817}
	assert.InDelta(t, 0, LocationScore(newcastle, participant, domain.ServiceRequirements{}, Signals{}), 1e-9)

	// no participant on file
	assert.InDelta(t, 0, LocationScore(sameSpot, nil, domain.ServiceRequirements{}, Signals{}), 1e-9)
}

func TestHaversineKm(t *testing.T) {
	// Sydney to Melbourne is about 713km great-circle
	dist := haversineKm(-33.8688, 151.2093, -37.8136, 144.9631)
	assert.InDelta(t, 713, dist, 10)

	assert.InDelta(t, 0, haversineKm(-33.8688, 151.2093, -33.8688, 151.2093), 1e-9)
}

func TestExperienceScore(t *testing.T) {
	tests := []struct {
		name        string
		years       int
		reliability float64
		want        float64
	}{
		{"new and unrated", 0, 0, 0},
		{"veteran with perfect rating", 10, 5, 100},
		{"tenure saturates at ten years", 25, 5, 100},
		{"mid tenure mid rating", 5, 2.5, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staff := &domain.StaffProfile{YearsExperience: tt.years, ReliabilityScore: tt.reliability}
			assert.InDelta(t, tt.want, ExperienceScore(staff, nil, domain.ServiceRequirements{}, Signals{}), 1e-9)
		})
	}
}

func TestPreferenceScore(t *testing.T) {
	staff := &domain.StaffProfile{Languages: []string{"English", "Vietnamese"}, Gender: "female"}

	// no preferences means nothing to miss
	assert.InDelta(t, 100, PreferenceScore(staff, nil, domain.ServiceRequirements{}, Signals{}), 1e-9)

	both := domain.ServiceRequirements{PreferredLanguages: []string{"vietnamese"}, PreferredGender: "Female"}
	assert.InDelta(t, 100, PreferenceScore(staff, nil, both, Signals{}), 1e-9)

	halfMet := domain.ServiceRequirements{PreferredLanguages: []string{"auslan"}, PreferredGender: "female"}
	assert.InDelta(t, 50, PreferenceScore(staff, nil, halfMet, Signals{}), 1e-9)

	noneMet := domain.ServiceRequirements{PreferredLanguages: []string{"auslan"}, PreferredGender: "male"}
	assert.InDelta(t, 0, PreferenceScore(staff, nil, noneMet, Signals{}), 1e-9)
}

func TestContinuityScore(t *testing.T) {
	sig := Signals{PriorShiftsWithParticipant: map[string]int{"familiar": 4, "regular": 8, "veteran": 30}}

	assert.InDelta(t, 0, ContinuityScore(worker("stranger"), nil, domain.ServiceRequirements{}, sig), 1e-9)
	assert.InDelta(t, 50, ContinuityScore(worker("familiar"), nil, domain.ServiceRequirements{}, sig), 1e-9)
	assert.InDelta(t, 100, ContinuityScore(worker("regular"), nil, domain.ServiceRequirements{}, sig), 1e-9)
	assert.InDelta(t, 100, ContinuityScore(worker("veteran"), nil, domain.ServiceRequirements{}, sig), 1e-9)
}

func TestScoresStayInRange(t *testing.T) {
	staff := &domain.StaffProfile{
		Qualifications:   []string{"disability_support", "personal_care_certificate"},
		Languages:        []string{"english"},
		YearsExperience:  40,
		ReliabilityScore: 9.5,
	}
	participant := &domain.Participant{Latitude: -33.9, Longitude: 151.2}
	req := domain.ServiceRequirements{ServiceType: domain.ServicePersonalCare}
	sig := Signals{
		UpcomingShifts:             map[string]int{staff.ID: 3},
		PriorShiftsWithParticipant: map[string]int{staff.ID: 100},
	}

	for _, score := range []float64{
		SkillScore(staff, participant, req, sig),
		AvailabilityScore(staff, participant, req, sig),
		LocationScore(staff, participant, req, sig),
		ExperienceScore(staff, participant, req, sig),
		PreferenceScore(staff, participant, req, sig),
		ContinuityScore(staff, participant, req, sig),
	} {
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}
