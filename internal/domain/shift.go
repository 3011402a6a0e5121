package domain

import "time"

// Shift is a rostered delivery window. The workflow core reads shifts
// only to derive availability and continuity signals; scheduling CRUD
// lives outside this service.
type Shift struct {
	ID            string
	StaffID       string
	ParticipantID string
	StartsAt      time.Time
	EndsAt        time.Time
	Status        string
	CreatedAt     time.Time
}
