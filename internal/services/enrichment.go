package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jobvector/jobvector/internal/clients/gemini"
	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/logger"
	"github.com/jobvector/jobvector/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const maxJobSkills = 15
const maxProfileSkills = 20

// ErrRateLimitExhausted is returned when every configured API key has hit
// its quota. It is never absorbed into a placeholder result: callers decide
// whether to retry, defer, or surface it.
var ErrRateLimitExhausted = errors.New("ai quota exhausted on all keys")

type aiProvider interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int32, temperature float32) (string, error)
	EmbedText(ctx context.Context, text string) (entities.Vector, error)
}

// Enricher fills in skills, seniority, summary and an embedding for raw job
// postings, and extracts candidate profiles from resumes. With a nil provider
// it runs fully offline on deterministic placeholders.
type Enricher struct {
	ai aiProvider
}

func NewEnricher(ai aiProvider) *Enricher {
	return &Enricher{ai: ai}
}

type jobExtraction struct {
	Skills    []string `json:"skills"`
	Seniority string   `json:"seniority"`
	Summary   string   `json:"summary"`
}

type profileExtraction struct {
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	Summary         string   `json:"summary"`
	KeyStrengths    []string `json:"key_strengths"`
	Education       []string `json:"education"`
	JobTitles       []string `json:"job_titles"`
}

// EnrichJob populates the job's Skills, Seniority, Summary and Embedding in
// place. Extraction falls back to placeholders on malformed model output;
// only quota exhaustion aborts the whole enrichment.
func (e *Enricher) EnrichJob(ctx context.Context, job *entities.Job) error {

	start := time.Now()
	if err := e.extractJobFields(ctx, job); err != nil {
		return err
	}
	metrics.EnrichmentStepDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())

	start = time.Now()
	embedding, err := e.Embed(ctx, enrichedJobText(job))
	if err != nil {
		return err
	}
	job.Embedding = embedding
	metrics.EnrichmentStepDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())

	metrics.EnrichedJobsCounter.Inc()
	return nil
}

func (e *Enricher) extractJobFields(ctx context.Context, job *entities.Job) error {

	if e.ai == nil {
		applyJobPlaceholder(job)
		return nil
	}

	response, err := e.ai.GenerateText(ctx, jobExtractionPrompt(job), 1024, 0.2)
	if err != nil {
		if errors.Is(err, gemini.ErrAllKeysExhausted) {
			return errors.WithMessagef(ErrRateLimitExhausted, "job %s extraction: %v", job.ID, err)
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("extraction failed for job %s, using placeholder: %v", job.ID, err)
		metrics.EnrichmentFallbacksCounter.WithLabelValues("extract").Inc()
		applyJobPlaceholder(job)
		return nil
	}

	var extracted jobExtraction
	if err := json.Unmarshal([]byte(stripMarkdownFences(response)), &extracted); err != nil {
		log.Warnf("unparseable extraction for job %s, using placeholder: %v", job.ID, err)
		metrics.EnrichmentFallbacksCounter.WithLabelValues("extract").Inc()
		applyJobPlaceholder(job)
		return nil
	}

	if len(extracted.Skills) > maxJobSkills {
		extracted.Skills = extracted.Skills[:maxJobSkills]
	}
	job.Skills = extracted.Skills
	job.Seniority = entities.NormalizeSeniority(extracted.Seniority)
	job.Summary = strings.TrimSpace(extracted.Summary)
	if job.Summary == "" {
		job.Summary = placeholderSummary(job.Description)
	}
	return nil
}

// ExtractProfile turns free-form resume text into a structured candidate
// profile.
func (e *Enricher) ExtractProfile(ctx context.Context, resumeText string) (*entities.CandidateProfile, error) {

	if e.ai == nil {
		return placeholderProfile(resumeText), nil
	}

	response, err := e.ai.GenerateText(ctx, profileExtractionPrompt(resumeText), 1024, 0.2)
	if err != nil {
		if errors.Is(err, gemini.ErrAllKeysExhausted) {
			return nil, errors.WithMessagef(ErrRateLimitExhausted, "profile extraction: %v", err)
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("profile extraction failed, using placeholder: %v", err)
		metrics.EnrichmentFallbacksCounter.WithLabelValues("profile").Inc()
		return placeholderProfile(resumeText), nil
	}

	var extracted profileExtraction
	if err := json.Unmarshal([]byte(stripMarkdownFences(response)), &extracted); err != nil {
		log.Warnf("unparseable profile extraction, using placeholder: %v", err)
		metrics.EnrichmentFallbacksCounter.WithLabelValues("profile").Inc()
		return placeholderProfile(resumeText), nil
	}

	if len(extracted.Skills) > maxProfileSkills {
		extracted.Skills = extracted.Skills[:maxProfileSkills]
	}
	return &entities.CandidateProfile{
		Skills:          extracted.Skills,
		ExperienceYears: extracted.ExperienceYears,
		Summary:         strings.TrimSpace(extracted.Summary),
		KeyStrengths:    extracted.KeyStrengths,
		Education:       extracted.Education,
		JobTitles:       extracted.JobTitles,
	}, nil
}

// Embed returns an embedding for arbitrary text. Quota exhaustion
// propagates; any other provider failure degrades to the deterministic
// placeholder so downstream search stays usable.
func (e *Enricher) Embed(ctx context.Context, text string) (entities.Vector, error) {

	if e.ai == nil {
		return placeholderEmbedding(text), nil
	}

	embedding, err := e.ai.EmbedText(ctx, text)
	if err != nil {
		if errors.Is(err, gemini.ErrAllKeysExhausted) {
			return nil, errors.WithMessagef(ErrRateLimitExhausted, "embedding: %v", err)
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("embedding failed, using placeholder: %v", err)
		metrics.EnrichmentFallbacksCounter.WithLabelValues("embed").Inc()
		return placeholderEmbedding(text), nil
	}
	return embedding, nil
}

// EmbedProfile embeds the textual rendering of a candidate profile
// together with the leading portion of the resume it came from, so two
// resumes that extract to the same structured fields still embed apart.
func (e *Enricher) EmbedProfile(ctx context.Context, profile *entities.CandidateProfile, resumeText string) (entities.Vector, error) {
	return e.Embed(ctx, profileText(profile, resumeText))
}

func applyJobPlaceholder(job *entities.Job) {
	job.Skills = placeholderSkills(job.Position+" "+job.Description, maxJobSkills)
	job.Seniority = placeholderSeniority(job.Position, job.Description)
	job.Summary = placeholderSummary(job.Description)
}

var experiencePattern = regexp.MustCompile(`(\d+)\+?\s*(?:years|yrs)`)

func placeholderProfile(resumeText string) *entities.CandidateProfile {

	skills := placeholderSkills(resumeText, maxProfileSkills)

	years := 0.0
	if m := experiencePattern.FindStringSubmatch(strings.ToLower(resumeText)); m != nil {
		if parsed, err := strconv.Atoi(m[1]); err == nil {
			years = float64(parsed)
		}
	}

	strengths := skills
	if len(strengths) > 3 {
		strengths = strengths[:3]
	}

	return &entities.CandidateProfile{
		Skills:          skills,
		ExperienceYears: years,
		Summary:         placeholderSummary(resumeText),
		KeyStrengths:    strengths,
	}
}

// profileEmbedTextLimit bounds how much raw resume text joins the
// embedding input alongside the structured fields.
const profileEmbedTextLimit = 2000

// enrichedJobText is the embedding input: the full original posting plus
// the extracted fields when present.
func enrichedJobText(job *entities.Job) string {
	parts := []string{job.Position, job.Company, job.Description}
	if len(job.Skills) > 0 {
		parts = append(parts, strings.Join(job.Skills, ", "))
	}
	if job.Summary != "" {
		parts = append(parts, job.Summary)
	}
	return strings.Join(parts, ". ")
}

func profileText(profile *entities.CandidateProfile, resumeText string) string {
	parts := []string{profile.Summary}
	if len(profile.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(profile.Skills, ", "))
	}
	if len(profile.JobTitles) > 0 {
		parts = append(parts, "Roles: "+strings.Join(profile.JobTitles, ", "))
	}
	if profile.ExperienceYears > 0 {
		parts = append(parts, fmt.Sprintf("%.0f years of experience", profile.ExperienceYears))
	}

	if runes := []rune(resumeText); len(runes) > profileEmbedTextLimit {
		resumeText = string(runes[:profileEmbedTextLimit])
	}
	if resumeText != "" {
		parts = append(parts, resumeText)
	}
	return strings.Join(parts, ". ")
}

func jobExtractionPrompt(job *entities.Job) string {
	return fmt.Sprintf(`Extract structured data from this job posting.
Respond with JSON only, no prose: {"skills": [up to %d skill names], "seniority": "Junior"|"Mid"|"Senior"|"Lead", "summary": "2-3 sentence summary"}

Position: %s
Company: %s
Description: %s`, maxJobSkills, job.Position, job.Company, job.Description)
}

func profileExtractionPrompt(resumeText string) string {
	return fmt.Sprintf(`Extract a candidate profile from this resume.
Respond with JSON only, no prose: {"skills": [up to %d skill names], "experience_years": number, "summary": "2-3 sentence summary", "key_strengths": [...], "education": [...], "job_titles": [...]}

Resume:
%s`, maxProfileSkills, resumeText)
}

// stripMarkdownFences removes a surrounding ```json ... ``` block that
// models often wrap around JSON answers.
func stripMarkdownFences(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
