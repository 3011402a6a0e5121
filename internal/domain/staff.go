package domain

import "time"

// Department name used for rostered support workers.
const DepartmentServiceDelivery = "service_delivery"

// StaffProfile models a rostered support worker. Read-only for the
// matching engine; lifecycle is owned by HR CRUD outside this service.
type StaffProfile struct {
	ID               string
	Name             string
	Email            string
	Department       string
	Qualifications   []string
	Languages        []string
	Gender           string
	Latitude         float64
	Longitude        float64
	YearsExperience  int
	ReliabilityScore float64
	HourlyRate       float64
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
