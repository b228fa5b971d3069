package scoring

import "strings"

var educationLevels = map[string]struct{}{
	EducationHighSchool: {},
	EducationBachelor:   {},
	EducationMaster:     {},
	EducationPhD:        {},
}

// ValidateProfile normalizes the profile in place and returns a
// *ValidationError listing every invalid field, or nil.
func ValidateProfile(profile *ApplicantProfile) error {
	var issues []FieldIssue

	profile.CurrentCountry = strings.ToUpper(strings.TrimSpace(profile.CurrentCountry))
	if len(profile.CurrentCountry) != 2 {
		issues = append(issues, FieldIssue{Field: "currentCountry", Issue: "must be a 2-letter ISO country code"})
	}

	targets := make([]string, 0, len(profile.TargetCountries))
	for _, c := range profile.TargetCountries {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			targets = append(targets, c)
		}
	}
	profile.TargetCountries = targets
	if len(profile.TargetCountries) < 1 || len(profile.TargetCountries) > 5 {
		issues = append(issues, FieldIssue{Field: "targetCountries", Issue: "must contain between 1 and 5 ISO country codes"})
	} else {
		for _, c := range profile.TargetCountries {
			if len(c) != 2 {
				issues = append(issues, FieldIssue{Field: "targetCountries", Issue: "each entry must be a 2-letter ISO country code"})
				break
			}
		}
	}

	profile.Profession = strings.TrimSpace(profile.Profession)
	if profile.Profession == "" {
		issues = append(issues, FieldIssue{Field: "profession", Issue: "is required"})
	}

	if profile.YearsExperience < 0 || profile.YearsExperience > 50 {
		issues = append(issues, FieldIssue{Field: "yearsExperience", Issue: "must be between 0 and 50"})
	}

	profile.Education = strings.ToLower(strings.TrimSpace(profile.Education))
	if _, ok := educationLevels[profile.Education]; !ok {
		issues = append(issues, FieldIssue{Field: "education", Issue: "must be one of high-school, bachelor, master, phd"})
	}

	languages := make([]string, 0, len(profile.Languages))
	for _, lang := range profile.Languages {
		if trimmed := strings.TrimSpace(lang); trimmed != "" {
			languages = append(languages, trimmed)
		}
	}
	profile.Languages = languages
	if len(profile.Languages) == 0 {
		issues = append(issues, FieldIssue{Field: "languages", Issue: "at least one language is required"})
	}

	if profile.Salary < 0 {
		issues = append(issues, FieldIssue{Field: "salary", Issue: "must be zero or positive"})
	}

	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Email != "" && !strings.Contains(profile.Email, "@") {
		issues = append(issues, FieldIssue{Field: "email", Issue: "must be a valid email address"})
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
