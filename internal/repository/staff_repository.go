package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/carebridge/referral-service/internal/domain"
)

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Department *string
	Active     *bool
	Limit      int
	Offset     int
}

// StaffRepository handles read access to the staff roster.
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*domain.StaffProfile, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffProfile, error)
	CountActiveInDepartment(ctx context.Context, department string) (int, error)
}

type staffRepository struct {
	db Querier
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(db Querier) StaffRepository {
	return &staffRepository{db: db}
}

const staffColumns = `id, name, email, department, qualifications, languages, gender,
       latitude, longitude, years_experience, reliability_score, hourly_rate, active_flag,
       created_at, updated_at`

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE id=$1`, staffColumns)
	var staff domain.StaffProfile
	if err := scanStaff(r.db.QueryRow(ctx, query, id), &staff); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff`, staffColumns)
	args := []any{}
	clauses := []string{}

	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffProfile
	for rows.Next() {
		var staff domain.StaffProfile
		if err := scanStaff(rows, &staff); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}

func (r *staffRepository) CountActiveInDepartment(ctx context.Context, department string) (int, error) {
	const query = `SELECT COUNT(*) FROM staff WHERE department=$1 AND active_flag=true`
	var count int
	if err := r.db.QueryRow(ctx, query, department).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanStaff(row pgx.Row, staff *domain.StaffProfile) error {
	return row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.Department,
		&staff.Qualifications,
		&staff.Languages,
		&staff.Gender,
		&staff.Latitude,
		&staff.Longitude,
		&staff.YearsExperience,
		&staff.ReliabilityScore,
		&staff.HourlyRate,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	)
}
