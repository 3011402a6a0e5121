package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/repository"
)

// MatchSummary condenses a staff matching run for automation output.
type MatchSummary struct {
	Total          int
	QualifiedCount int
	TopStaffID     string
	TopStaffName   string
}

// Matcher runs staff matching for a referral's requirements.
type Matcher interface {
	MatchForReferral(ctx context.Context, referral *domain.Referral) (MatchSummary, error)
}

// AutomationOutcome reports what entering a stage did.
type AutomationOutcome struct {
	ActionsPerformed []string `json:"actions_performed"`
	Summary          string   `json:"summary"`
	AgreementID      string   `json:"agreement_id,omitempty"`
	MonthlyCost      float64  `json:"monthly_cost,omitempty"`
	AnnualCost       float64  `json:"annual_cost,omitempty"`
	QualifiedMatches int      `json:"qualified_matches,omitempty"`
	TopStaffID       string   `json:"top_staff_id,omitempty"`
}

// serviceRate holds default delivery assumptions used to cost an
// agreement before plan details are confirmed.
type serviceRate struct {
	hourly      float64
	weeklyHours float64
}

// NDIS price-guide aligned defaults per service type.
var defaultServiceRates = map[domain.ServiceType]serviceRate{
	domain.ServicePersonalCare:        {hourly: 67.56, weeklyHours: 14},
	domain.ServiceCommunityAccess:     {hourly: 67.56, weeklyHours: 8},
	domain.ServiceSupportCoordination: {hourly: 100.14, weeklyHours: 3},
	domain.ServiceHouseholdTasks:      {hourly: 58.76, weeklyHours: 5},
	domain.ServiceSupportedLiving:     {hourly: 70.23, weeklyHours: 35},
}

var fallbackServiceRate = serviceRate{hourly: 65.47, weeklyHours: 6}

const weeksPerMonth = 4.33

// Executor performs the side-effecting action associated with entering
// a stage. Database writes go through the caller's transaction so a
// failed advancement leaves nothing behind.
type Executor struct {
	matcher Matcher
	logger  *zap.Logger
}

// NewExecutor constructs the executor.
func NewExecutor(matcher Matcher, logger *zap.Logger) *Executor {
	return &Executor{matcher: matcher, logger: logger}
}

// Execute dispatches on the target stage. Stages without automation
// return a zero-action outcome.
func (e *Executor) Execute(ctx context.Context, tx repository.TxRepos, referral *domain.Referral, target Stage) (AutomationOutcome, error) {
	switch target {
	case StageAgreementPrepared:
		return e.prepareAgreement(ctx, tx, referral)
	case StageAgreementSent:
		return e.sendAgreement(referral)
	case StageStaffAllocation:
		return e.allocateStaff(ctx, referral)
	default:
		return AutomationOutcome{Summary: "no automation for stage"}, nil
	}
}

func (e *Executor) prepareAgreement(ctx context.Context, tx repository.TxRepos, referral *domain.Referral) (AutomationOutcome, error) {
	rate, ok := defaultServiceRates[referral.ServiceType]
	if !ok {
		rate = fallbackServiceRate
	}
	monthly := rate.hourly * rate.weeklyHours * weeksPerMonth
	annual := monthly * 12

	agreement := &domain.ServiceAgreement{
		ReferralID:    referral.ID,
		ParticipantID: referral.ParticipantID,
		Status:        domain.AgreementStatusDraft,
		TemplateData: map[string]any{
			"participant_name":  referral.FullName(),
			"ndis_number":       referral.NDISNumber,
			"service_type":      string(referral.ServiceType),
			"hourly_rate":       rate.hourly,
			"weekly_hours":      rate.weeklyHours,
			"estimated_monthly": monthly,
			"estimated_annual":  annual,
		},
		MonthlyCost: monthly,
		AnnualCost:  annual,
	}
	if err := tx.Agreements.Create(ctx, agreement); err != nil {
		return AutomationOutcome{}, fmt.Errorf("create service agreement: %w", err)
	}

	return AutomationOutcome{
		ActionsPerformed: []string{"service agreement drafted"},
		Summary:          fmt.Sprintf("drafted agreement %s at $%.2f/month", agreement.ID, monthly),
		AgreementID:      agreement.ID,
		MonthlyCost:      monthly,
		AnnualCost:       annual,
	}, nil
}

// sendAgreement is a stub: there is no e-signature integration yet, so
// entering agreement_sent only records the intent.
func (e *Executor) sendAgreement(referral *domain.Referral) (AutomationOutcome, error) {
	e.logger.Info("agreement queued for e-signature dispatch",
		zap.String("referral_id", referral.ID),
		zap.String("ndis_number", referral.NDISNumber),
	)
	return AutomationOutcome{
		ActionsPerformed: []string{"agreement queued for signature"},
		Summary:          "agreement queued for e-signature dispatch",
	}, nil
}

func (e *Executor) allocateStaff(ctx context.Context, referral *domain.Referral) (AutomationOutcome, error) {
	if e.matcher == nil {
		return AutomationOutcome{Summary: "staff matching unavailable"}, nil
	}
	summary, err := e.matcher.MatchForReferral(ctx, referral)
	if err != nil {
		return AutomationOutcome{}, fmt.Errorf("staff matching: %w", err)
	}
	return AutomationOutcome{
		ActionsPerformed: []string{"staff matching executed"},
		Summary: fmt.Sprintf("%d of %d candidates qualified for %s",
			summary.QualifiedCount, summary.Total, referral.ServiceType),
		QualifiedMatches: summary.QualifiedCount,
		TopStaffID:       summary.TopStaffID,
	}, nil
}
