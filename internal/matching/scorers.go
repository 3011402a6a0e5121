package matching

import (
	"strings"

	"github.com/carebridge/referral-service/internal/domain"
)

// Signals carries the roster-derived inputs scorers need beyond the
// staff profile itself. Keys are staff IDs.
type Signals struct {
	// UpcomingShifts counts rostered shifts over the lookahead window.
	UpcomingShifts map[string]int
	// PriorShiftsWithParticipant counts past deliveries to this participant.
	PriorShiftsWithParticipant map[string]int
}

// Scorer computes one matching axis, returning a value in [0,100].
// Each axis is independently substitutable and testable.
type Scorer interface {
	Score(staff *domain.StaffProfile, participant *domain.Participant, req domain.ServiceRequirements, sig Signals) float64
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(staff *domain.StaffProfile, participant *domain.Participant, req domain.ServiceRequirements, sig Signals) float64

// Score implements Scorer.
func (f ScorerFunc) Score(staff *domain.StaffProfile, participant *domain.Participant, req domain.ServiceRequirements, sig Signals) float64 {
	return f(staff, participant, req, sig)
}

// SkillScore is the ratio of matched qualifications to the required set
// for the service type, capped at 100.
func SkillScore(staff *domain.StaffProfile, _ *domain.Participant, req domain.ServiceRequirements, _ Signals) float64 {
	required := RequiredQualifications(req.ServiceType)
	if len(required) == 0 {
		return 100
	}
	held := make(map[string]bool, len(staff.Qualifications))
	for _, q := range staff.Qualifications {
		held[strings.ToLower(strings.TrimSpace(q))] = true
	}
	matched := 0
	for _, q := range required {
		if held[q] {
			matched++
		}
	}
	return clampScore(float64(matched) / float64(len(required)) * 100)
}

// shift load at which a worker is considered fully booked for the week
const fullyBookedShifts = 10

// AvailabilityScore derives availability from the worker's rostered
// load over the lookahead window: an empty roster scores 100, tapering
// to 0 once fully booked.
func AvailabilityScore(staff *domain.StaffProfile, _ *domain.Participant, _ domain.ServiceRequirements, sig Signals) float64 {
	load := sig.UpcomingShifts[staff.ID]
	if load >= fullyBookedShifts {
		return 0
	}
	return clampScore(float64(fullyBookedShifts-load) / fullyBookedShifts * 100)
}

const (
	nearbyKm    = 5.0
	maxTravelKm = 50.0
)

// LocationScore maps the travel distance between worker and participant
// onto [0,100]: full score within nearbyKm, falling linearly to zero at
// maxTravelKm.
func LocationScore(staff *domain.StaffProfile, participant *domain.Participant, _ domain.ServiceRequirements, _ Signals) float64 {
	if participant == nil {
		return 0
	}
	dist := haversineKm(staff.Latitude, staff.Longitude, participant.Latitude, participant.Longitude)
	if dist <= nearbyKm {
		return 100
	}
	if dist >= maxTravelKm {
		return 0
	}
	return clampScore((maxTravelKm - dist) / (maxTravelKm - nearbyKm) * 100)
}

// ExperienceScore blends tenure and reliability: ten years of
// experience saturates the tenure half, the reliability rating (0-5)
// supplies the other half.
func ExperienceScore(staff *domain.StaffProfile, _ *domain.Participant, _ domain.ServiceRequirements, _ Signals) float64 {
	tenure := float64(staff.YearsExperience) / 10
	if tenure > 1 {
		tenure = 1
	}
	reliability := staff.ReliabilityScore / 5
	if reliability > 1 {
		reliability = 1
	}
	return clampScore((tenure*0.5 + reliability*0.5) * 100)
}

// PreferenceScore checks the participant's cultural/language and gender
// preferences against the worker. Absent preferences count as met.
func PreferenceScore(staff *domain.StaffProfile, _ *domain.Participant, req domain.ServiceRequirements, _ Signals) float64 {
	checks := 0
	met := 0

	if len(req.PreferredLanguages) > 0 {
		checks++
		spoken := make(map[string]bool, len(staff.Languages))
		for _, l := range staff.Languages {
			spoken[strings.ToLower(l)] = true
		}
		for _, want := range req.PreferredLanguages {
			if spoken[strings.ToLower(want)] {
				met++
				break
			}
		}
	}
	if req.PreferredGender != "" {
		checks++
		if strings.EqualFold(staff.Gender, req.PreferredGender) {
			met++
		}
	}

	if checks == 0 {
		return 100
	}
	return clampScore(float64(met) / float64(checks) * 100)
}

// continuity saturates after this many prior shifts together
const continuitySaturation = 8

// ContinuityScore rewards workers who have already delivered shifts to
// this participant.
func ContinuityScore(staff *domain.StaffProfile, _ *domain.Participant, _ domain.ServiceRequirements, sig Signals) float64 {
	prior := sig.PriorShiftsWithParticipant[staff.ID]
	if prior >= continuitySaturation {
		return 100
	}
	return clampScore(float64(prior) / continuitySaturation * 100)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
