package domain

// ServiceRequirements is a transient value object describing what a
// matching call is looking for. Never persisted.
type ServiceRequirements struct {
	ServiceType        ServiceType
	UrgencyLevel       UrgencyLevel
	PreferredLanguages []string
	PreferredGender    string
}

// AxisScores holds the per-axis matching scores, each in [0,100].
type AxisScores struct {
	Skill        float64 `json:"skill"`
	Availability float64 `json:"availability"`
	Location     float64 `json:"location"`
	Experience   float64 `json:"experience"`
	Preference   float64 `json:"preference"`
	Continuity   float64 `json:"continuity"`
}

// StaffMatch is a computed ranking result for one candidate. Transient;
// returned to the caller, never stored.
type StaffMatch struct {
	StaffID        string     `json:"staff_id"`
	StaffName      string     `json:"staff_name"`
	Scores         AxisScores `json:"scores"`
	OverallScore   float64    `json:"overall_score"`
	Qualified      bool       `json:"qualified"`
	Recommendation string     `json:"recommendation"`
}
