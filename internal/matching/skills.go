package matching

import "github.com/carebridge/referral-service/internal/domain"

// requiredQualifications maps a service type to the qualification set a
// worker needs to deliver it. Unknown service types fall back to the
// baseline disability support qualification.
var requiredQualifications = map[domain.ServiceType][]string{
	domain.ServicePersonalCare:        {"personal_care_certificate", "disability_support"},
	domain.ServiceCommunityAccess:     {"disability_support", "community_access_training"},
	domain.ServiceSupportCoordination: {"support_coordination_certificate", "disability_support"},
	domain.ServiceHouseholdTasks:      {"disability_support"},
	domain.ServiceSupportedLiving:     {"disability_support", "medication_management", "personal_care_certificate"},
}

var defaultQualifications = []string{"basic_disability_support"}

// RequiredQualifications returns the qualification set for a service
// type, defaulting for unknown types.
func RequiredQualifications(serviceType domain.ServiceType) []string {
	if quals, ok := requiredQualifications[serviceType]; ok {
		return quals
	}
	return defaultQualifications
}
