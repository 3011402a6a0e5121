package repository

import (
	"context"
	"time"
)

// ShiftRepository exposes the roster signals the matching engine needs.
// Shift CRUD is owned by the scheduling module outside this service.
type ShiftRepository interface {
	// CountUpcomingByStaff returns rostered shift counts per staff ID
	// between from and to.
	CountUpcomingByStaff(ctx context.Context, from, to time.Time) (map[string]int, error)
	// CountDeliveredToParticipant returns per-staff counts of completed
	// shifts delivered to the participant.
	CountDeliveredToParticipant(ctx context.Context, participantID string) (map[string]int, error)
}

type shiftRepository struct {
	db Querier
}

// NewShiftRepository instantiates the repository.
func NewShiftRepository(db Querier) ShiftRepository {
	return &shiftRepository{db: db}
}

func (r *shiftRepository) CountUpcomingByStaff(ctx context.Context, from, to time.Time) (map[string]int, error) {
	const query = `
        SELECT staff_id, COUNT(*)
        FROM shifts
        WHERE starts_at >= $1 AND starts_at < $2 AND status != 'cancelled'
        GROUP BY staff_id`
	return r.countByStaff(ctx, query, from, to)
}

func (r *shiftRepository) CountDeliveredToParticipant(ctx context.Context, participantID string) (map[string]int, error) {
	const query = `
        SELECT staff_id, COUNT(*)
        FROM shifts
        WHERE participant_id = $1 AND status = 'completed'
        GROUP BY staff_id`
	return r.countByStaff(ctx, query, participantID)
}

func (r *shiftRepository) countByStaff(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var staffID string
		var count int
		if err := rows.Scan(&staffID, &count); err != nil {
			return nil, err
		}
		counts[staffID] = count
	}
	return counts, rows.Err()
}
