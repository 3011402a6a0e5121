package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/carebridge/referral-service/internal/domain"
)

// ErrVersionConflict signals that a referral row changed underneath an
// advancement; callers should surface a conflict to the caller rather
// than retry blindly.
var ErrVersionConflict = errors.New("referral version conflict")

// ReferralFilter captures listing parameters.
type ReferralFilter struct {
	WorkflowStatuses []string
	ServiceType      *domain.ServiceType
	UrgencyLevel     *domain.UrgencyLevel
	SearchTerm       *string
	Limit            int
	Offset           int
}

// ReferralRepository encapsulates referral persistence.
type ReferralRepository interface {
	Create(ctx context.Context, referral *domain.Referral) error
	GetByID(ctx context.Context, id string) (*domain.Referral, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Referral, error)
	List(ctx context.Context, filter ReferralFilter) ([]domain.Referral, error)
	// UpdateStage moves the workflow status with an optimistic version
	// check. Returns ErrVersionConflict when the row's version no
	// longer matches and pgx.ErrNoRows when the referral is missing.
	UpdateStage(ctx context.Context, id, toStage string, version int64) error
	CountByStage(ctx context.Context) (map[string]int, error)
}

type referralRepository struct {
	db Querier
}

// NewReferralRepository instantiates the repository.
func NewReferralRepository(db Querier) ReferralRepository {
	return &referralRepository{db: db}
}

const referralColumns = `id, participant_id, first_name, last_name, ndis_number, primary_disability,
       service_type, urgency_level, workflow_status, notes, version, created_at, updated_at`

func (r *referralRepository) Create(ctx context.Context, referral *domain.Referral) error {
	const query = `
        INSERT INTO referrals (participant_id, first_name, last_name, ndis_number, primary_disability,
                               service_type, urgency_level, workflow_status, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, version, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		referral.ParticipantID,
		referral.FirstName,
		referral.LastName,
		referral.NDISNumber,
		referral.PrimaryDisability,
		referral.ServiceType,
		referral.UrgencyLevel,
		referral.WorkflowStatus,
		referral.Notes,
	).Scan(&referral.ID, &referral.Version, &referral.CreatedAt, &referral.UpdatedAt)
}

func (r *referralRepository) GetByID(ctx context.Context, id string) (*domain.Referral, error) {
	query := fmt.Sprintf(`SELECT %s FROM referrals WHERE id=$1`, referralColumns)
	var referral domain.Referral
	if err := scanReferral(r.db.QueryRow(ctx, query, id), &referral); err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *referralRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Referral, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM referrals WHERE id = ANY($1)`, referralColumns)
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReferrals(rows)
}

func (r *referralRepository) List(ctx context.Context, filter ReferralFilter) ([]domain.Referral, error) {
	base := fmt.Sprintf(`SELECT %s FROM referrals`, referralColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.WorkflowStatuses) > 0 {
		placeholders := make([]string, len(filter.WorkflowStatuses))
		for i, status := range filter.WorkflowStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("workflow_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ServiceType != nil {
		args = append(args, *filter.ServiceType)
		clauses = append(clauses, fmt.Sprintf("service_type=$%d", len(args)))
	}
	if filter.UrgencyLevel != nil {
		args = append(args, *filter.UrgencyLevel)
		clauses = append(clauses, fmt.Sprintf("urgency_level=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(first_name) LIKE %s OR LOWER(last_name) LIKE %s OR ndis_number LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReferrals(rows)
}

func (r *referralRepository) UpdateStage(ctx context.Context, id, toStage string, version int64) error {
	const query = `
        UPDATE referrals SET workflow_status=$1, version=version+1, updated_at=NOW()
        WHERE id=$2 AND version=$3`
	cmd, err := r.db.Exec(ctx, query, toStage, id, version)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM referrals WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return pgx.ErrNoRows
}

func (r *referralRepository) CountByStage(ctx context.Context) (map[string]int, error) {
	const query = `SELECT workflow_status, COUNT(*) FROM referrals GROUP BY workflow_status`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		counts[stage] = count
	}
	return counts, rows.Err()
}

func scanReferral(row pgx.Row, referral *domain.Referral) error {
	return row.Scan(
		&referral.ID,
		&referral.ParticipantID,
		&referral.FirstName,
		&referral.LastName,
		&referral.NDISNumber,
		&referral.PrimaryDisability,
		&referral.ServiceType,
		&referral.UrgencyLevel,
		&referral.WorkflowStatus,
		&referral.Notes,
		&referral.Version,
		&referral.CreatedAt,
		&referral.UpdatedAt,
	)
}

func scanReferrals(rows pgx.Rows) ([]domain.Referral, error) {
	var result []domain.Referral
	for rows.Next() {
		var referral domain.Referral
		if err := scanReferral(rows, &referral); err != nil {
			return nil, err
		}
		result = append(result, referral)
	}
	return result, rows.Err()
}
