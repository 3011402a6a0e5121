package repository

import (
	"context"

	"github.com/carebridge/referral-service/internal/domain"
)

// AgreementRepository persists generated service agreements.
type AgreementRepository interface {
	Create(ctx context.Context, agreement *domain.ServiceAgreement) error
	ListByReferral(ctx context.Context, referralID string) ([]domain.ServiceAgreement, error)
}

type agreementRepository struct {
	db Querier
}

// NewAgreementRepository instantiates the repository.
func NewAgreementRepository(db Querier) AgreementRepository {
	return &agreementRepository{db: db}
}

func (r *agreementRepository) Create(ctx context.Context, agreement *domain.ServiceAgreement) error {
	const query = `
        INSERT INTO service_agreements (referral_id, participant_id, status, template_data, monthly_cost, annual_cost)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		agreement.ReferralID,
		agreement.ParticipantID,
		agreement.Status,
		agreement.TemplateData,
		agreement.MonthlyCost,
		agreement.AnnualCost,
	).Scan(&agreement.ID, &agreement.CreatedAt, &agreement.UpdatedAt)
}

func (r *agreementRepository) ListByReferral(ctx context.Context, referralID string) ([]domain.ServiceAgreement, error) {
	const query = `
        SELECT id, referral_id, participant_id, status, template_data, monthly_cost, annual_cost, created_at, updated_at
        FROM service_agreements WHERE referral_id=$1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, referralID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceAgreement
	for rows.Next() {
		var a domain.ServiceAgreement
		if err := rows.Scan(
			&a.ID,
			&a.ReferralID,
			&a.ParticipantID,
			&a.Status,
			&a.TemplateData,
			&a.MonthlyCost,
			&a.AnnualCost,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
