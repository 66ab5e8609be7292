package services

import (
	"hash/fnv"
	"math/rand"
	"regexp"
	"strings"

	"github.com/jobvector/jobvector/internal/entities"
)

// canonicalSkills is the vocabulary the offline enricher matches against
// job descriptions. Matching is a case-insensitive substring check.
var canonicalSkills = []string{
	"python", "javascript", "react", "node.js", "sql", "aws", "docker",
	"kubernetes", "java", "typescript", "go", "rust", "machine learning",
	"data science", "devops", "ci/cd", "postgresql", "mongodb", "redis",
	"kafka", "git", "linux", "api", "rest", "graphql", "microservices",
	"agile", "scrum",
}

var seniorMarkers = []string{"senior", "sr.", "lead", "principal", "staff"}
var juniorMarkers = []string{"junior", "entry", "associate"}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// placeholderSkills extracts known skills from free text without any
// model call. Order follows the canonical vocabulary, capped at max.
func placeholderSkills(text string, max int) []string {
	lowered := strings.ToLower(text)
	var skills []string
	for _, skill := range canonicalSkills {
		if strings.Contains(lowered, skill) {
			skills = append(skills, skill)
			if len(skills) >= max {
				break
			}
		}
	}
	return skills
}

func placeholderSeniority(position, description string) entities.Seniority {
	lowered := strings.ToLower(position + " " + description)
	for _, marker := range seniorMarkers {
		if strings.Contains(lowered, marker) {
			return entities.SenioritySenior
		}
	}
	for _, marker := range juniorMarkers {
		if strings.Contains(lowered, marker) {
			return entities.SeniorityJunior
		}
	}
	return entities.SeniorityMid
}

// placeholderSummary strips markup and keeps the first 200 characters,
// marking truncation with an ellipsis.
func placeholderSummary(description string) string {
	plain := htmlTagPattern.ReplaceAllString(description, " ")
	plain = strings.Join(strings.Fields(plain), " ")

	runes := []rune(plain)
	if len(runes) > 200 {
		return string(runes[:200]) + "..."
	}
	return plain
}

// placeholderEmbedding derives a deterministic pseudo-embedding from the
// text. The same input always yields the same vector, which keeps
// offline runs and tests reproducible.
func placeholderEmbedding(text string) entities.Vector {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))

	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	vec := make(entities.Vector, entities.EmbeddingDimensions)
	for i := range vec {
		vec[i] = float32(rng.Float64()*2 - 1)
	}
	return vec
}
