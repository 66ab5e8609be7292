package entities

import "strings"

type Seniority string

const (
	SeniorityJunior Seniority = "Junior"
	SeniorityMid    Seniority = "Mid"
	SenioritySenior Seniority = "Senior"
	SeniorityLead   Seniority = "Lead"
)

func (s Seniority) IsValid() bool {
	switch s {
	case SeniorityJunior, SeniorityMid, SenioritySenior, SeniorityLead:
		return true
	}
	return false
}

// NormalizeSeniority maps free-form level strings returned by the model to
// one of the four canonical values. Unrecognized input defaults to Mid.
func NormalizeSeniority(raw string) Seniority {
	if s := Seniority(raw); s.IsValid() {
		return s
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "junior"), strings.Contains(lower, "entry"):
		return SeniorityJunior
	case strings.Contains(lower, "senior"), strings.Contains(lower, "sr"):
		return SenioritySenior
	case strings.Contains(lower, "lead"), strings.Contains(lower, "principal"), strings.Contains(lower, "staff"):
		return SeniorityLead
	default:
		return SeniorityMid
	}
}
