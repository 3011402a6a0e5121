package domain

import "time"

// Participant is an onboarded NDIS participant. Matching reads the
// location and preference fields; the rest is managed elsewhere.
type Participant struct {
	ID                 string
	FirstName          string
	LastName           string
	NDISNumber         string
	PrimaryDisability  string
	Latitude           float64
	Longitude          float64
	PreferredLanguages []string
	PreferredGender    string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FullName joins the participant name fields.
func (p *Participant) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
