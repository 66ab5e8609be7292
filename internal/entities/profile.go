package entities

// CandidateProfile is the structured view of a résumé. It is derived on
// demand and never persisted.
type CandidateProfile struct {
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	Summary         string   `json:"summary"`
	KeyStrengths    []string `json:"key_strengths"`
	Education       []string `json:"education"`
	JobTitles       []string `json:"job_titles"`
}

// SkillGap compares a candidate profile against one job posting.
// Computed per request, never persisted.
type SkillGap struct {
	MissingSkills   []string `json:"missing_skills"`
	MatchingSkills  []string `json:"matching_skills"`
	Recommendations []string `json:"recommendations"`
}
