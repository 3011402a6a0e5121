package repository

import (
	"context"

	"github.com/carebridge/referral-service/internal/domain"
)

// FailureRepository is the dead-letter store for batch items that
// exhausted their retries.
type FailureRepository interface {
	Create(ctx context.Context, failure *domain.WorkflowFailure) error
	ListUnresolved(ctx context.Context, limit int) ([]domain.WorkflowFailure, error)
	RecordAttempt(ctx context.Context, id string, lastError string) error
	MarkResolved(ctx context.Context, id string) error
}

type failureRepository struct {
	db Querier
}

// NewFailureRepository instantiates the repository.
func NewFailureRepository(db Querier) FailureRepository {
	return &failureRepository{db: db}
}

func (r *failureRepository) Create(ctx context.Context, failure *domain.WorkflowFailure) error {
	const query = `
        INSERT INTO workflow_failures (referral_id, target_stage, attempts, last_error, resolved)
        VALUES ($1,$2,$3,$4,false)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		failure.ReferralID,
		failure.TargetStage,
		failure.Attempts,
		failure.LastError,
	).Scan(&failure.ID, &failure.CreatedAt, &failure.UpdatedAt)
}

func (r *failureRepository) ListUnresolved(ctx context.Context, limit int) ([]domain.WorkflowFailure, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, referral_id, target_stage, attempts, last_error, resolved, created_at, updated_at
        FROM workflow_failures WHERE resolved=false
        ORDER BY created_at ASC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkflowFailure
	for rows.Next() {
		var f domain.WorkflowFailure
		if err := rows.Scan(
			&f.ID,
			&f.ReferralID,
			&f.TargetStage,
			&f.Attempts,
			&f.LastError,
			&f.Resolved,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *failureRepository) RecordAttempt(ctx context.Context, id string, lastError string) error {
	const query = `
        UPDATE workflow_failures SET attempts=attempts+1, last_error=$1, updated_at=NOW()
        WHERE id=$2`
	_, err := r.db.Exec(ctx, query, lastError, id)
	return err
}

func (r *failureRepository) MarkResolved(ctx context.Context, id string) error {
	const query = `UPDATE workflow_failures SET resolved=true, updated_at=NOW() WHERE id=$1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
