package repository

import (
	"context"

	"github.com/carebridge/referral-service/internal/domain"
)

// ParticipantRepository handles read access to participants.
type ParticipantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Participant, error)
}

type participantRepository struct {
	db Querier
}

// NewParticipantRepository instantiates the repository.
func NewParticipantRepository(db Querier) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	const query = `
        SELECT id, first_name, last_name, ndis_number, primary_disability,
               latitude, longitude, preferred_languages, preferred_gender, active_flag,
               created_at, updated_at
        FROM participants WHERE id=$1`

	var p domain.Participant
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.NDISNumber,
		&p.PrimaryDisability,
		&p.Latitude,
		&p.Longitude,
		&p.PreferredLanguages,
		&p.PreferredGender,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
