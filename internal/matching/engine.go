package matching

import (
	"fmt"
	"math"
	"sort"

	"github.com/carebridge/referral-service/internal/domain"
)

// Axis weights. They must sum to 1.00; NewEngine enforces this.
const (
	WeightSkill        = 0.25
	WeightAvailability = 0.20
	WeightLocation     = 0.15
	WeightExperience   = 0.15
	WeightPreference   = 0.15
	WeightContinuity   = 0.10
)

const (
	// QualifiedThreshold is the minimum overall score for a candidate
	// to be considered qualified.
	QualifiedThreshold = 70.0
	// DefaultTopN bounds the ranked result list.
	DefaultTopN = 5
)

type weightedScorer struct {
	name   string
	weight float64
	scorer Scorer
}

// Engine ranks staff candidates against a participant's service
// requirements along the weighted scoring axes.
type Engine struct {
	scorers []weightedScorer
	topN    int
}

// NewEngine builds the engine with the standard axis set. Panics if the
// configured weights do not sum to 1, which would make overall scores
// leave the [0,100] range.
func NewEngine() *Engine {
	e := &Engine{
		scorers: []weightedScorer{
			{"skill", WeightSkill, ScorerFunc(SkillScore)},
			{"availability", WeightAvailability, ScorerFunc(AvailabilityScore)},
			{"location", WeightLocation, ScorerFunc(LocationScore)},
			{"experience", WeightExperience, ScorerFunc(ExperienceScore)},
			{"preference", WeightPreference, ScorerFunc(PreferenceScore)},
			{"continuity", WeightContinuity, ScorerFunc(ContinuityScore)},
		},
		topN: DefaultTopN,
	}
	var sum float64
	for _, ws := range e.scorers {
		sum += ws.weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		panic(fmt.Sprintf("matching: axis weights sum to %v, want 1.00", sum))
	}
	return e
}

// WeightSum returns the total of the configured axis weights.
func (e *Engine) WeightSum() float64 {
	var sum float64
	for _, ws := range e.scorers {
		sum += ws.weight
	}
	return sum
}

// Rank scores every candidate and returns the top matches sorted by
// descending overall score. The sort is stable, so ties keep input
// order.
func (e *Engine) Rank(participant *domain.Participant, req domain.ServiceRequirements, candidates []domain.StaffProfile, sig Signals) []domain.StaffMatch {
	matches := make([]domain.StaffMatch, 0, len(candidates))
	for i := range candidates {
		staff := &candidates[i]
		match := e.scoreOne(staff, participant, req, sig)
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].OverallScore > matches[j].OverallScore
	})

	if len(matches) > e.topN {
		matches = matches[:e.topN]
	}
	return matches
}

func (e *Engine) scoreOne(staff *domain.StaffProfile, participant *domain.Participant, req domain.ServiceRequirements, sig Signals) domain.StaffMatch {
	var scores domain.AxisScores
	var overall float64
	for _, ws := range e.scorers {
		v := clampScore(ws.scorer.Score(staff, participant, req, sig))
		overall += v * ws.weight
		switch ws.name {
		case "skill":
			scores.Skill = v
		case "availability":
			scores.Availability = v
		case "location":
			scores.Location = v
		case "experience":
			scores.Experience = v
		case "preference":
			scores.Preference = v
		case "continuity":
			scores.Continuity = v
		}
	}
	overall = clampScore(overall)

	return domain.StaffMatch{
		StaffID:        staff.ID,
		StaffName:      staff.Name,
		Scores:         scores,
		OverallScore:   overall,
		Qualified:      overall >= QualifiedThreshold,
		Recommendation: recommendation(overall),
	}
}

func recommendation(overall float64) string {
	switch {
	case overall >= 85:
		return "strong match, recommend immediate allocation"
	case overall >= QualifiedThreshold:
		return "qualified match, suitable for allocation"
	case overall >= 50:
		return "partial match, review before allocation"
	default:
		return "not suitable for this participant"
	}
}
