package repository

import (
	"context"
	"time"

	"github.com/carebridge/referral-service/internal/domain"
)

// StageCount aggregates transitions into one stage.
type StageCount struct {
	Stage string
	Count int
}

// AuditRepository is the append-only store for workflow transitions.
// Entries are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.WorkflowAuditEntry) error
	ListByReferral(ctx context.Context, referralID string, limit, offset int) ([]domain.WorkflowAuditEntry, error)
	CountByToStage(ctx context.Context, since time.Time) ([]StageCount, error)
	CountByAction(ctx context.Context, action domain.AuditAction, since time.Time) (int, error)
}

type auditRepository struct {
	db Querier
}

// NewAuditRepository instantiates the repository.
func NewAuditRepository(db Querier) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.WorkflowAuditEntry) error {
	const query = `
        INSERT INTO workflow_audit_log (entity_type, entity_id, action, user_id, from_stage, to_stage, details)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.UserID,
		entry.FromStage,
		entry.ToStage,
		entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListByReferral(ctx context.Context, referralID string, limit, offset int) ([]domain.WorkflowAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, entity_type, entity_id, action, user_id, from_stage, to_stage, details, created_at
        FROM workflow_audit_log
        WHERE entity_type='referral' AND entity_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, referralID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkflowAuditEntry
	for rows.Next() {
		var entry domain.WorkflowAuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.UserID,
			&entry.FromStage,
			&entry.ToStage,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *auditRepository) CountByToStage(ctx context.Context, since time.Time) ([]StageCount, error) {
	// batch-driven transitions carry their own action but count the same
	const query = `
        SELECT to_stage, COUNT(*)
        FROM workflow_audit_log
        WHERE action = ANY($1) AND created_at >= $2
        GROUP BY to_stage`

	advancementActions := []string{
		string(domain.AuditActionStageAdvanced),
		string(domain.AuditActionBatchAdvanced),
	}
	rows, err := r.db.Query(ctx, query, advancementActions, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StageCount
	for rows.Next() {
		var sc StageCount
		if err := rows.Scan(&sc.Stage, &sc.Count); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func (r *auditRepository) CountByAction(ctx context.Context, action domain.AuditAction, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM workflow_audit_log WHERE action=$1 AND created_at >= $2`
	var count int
	if err := r.db.QueryRow(ctx, query, action, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
