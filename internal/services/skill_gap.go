package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jobvector/jobvector/internal/clients/gemini"
	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/logger"
	"github.com/jobvector/jobvector/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const gapBatchSize = 3
const gapDescriptionLimit = 300
const maxFallbackMissing = 3

// SkillGapAnalyzer compares a candidate profile against job requirements.
// Jobs are analyzed in small batches to keep prompts within model limits,
// and identical profile/job pairs are memoized in memory.
type SkillGapAnalyzer struct {
	ai    aiProvider
	cache *gocache.Cache
}

func NewSkillGapAnalyzer(ai aiProvider) *SkillGapAnalyzer {
	return &SkillGapAnalyzer{
		ai:    ai,
		cache: gocache.New(time.Hour, 10*time.Minute),
	}
}

type gapResponse struct {
	JobID           string   `json:"job_id"`
	MissingSkills   []string `json:"missing_skills"`
	MatchingSkills  []string `json:"matching_skills"`
	Recommendations []string `json:"recommendations"`
}

// AnalyzeBatch returns a gap analysis per job ID. Model failures other
// than quota exhaustion degrade to a lexical comparison of skill lists.
func (a *SkillGapAnalyzer) AnalyzeBatch(ctx context.Context, profile *entities.CandidateProfile, jobs []entities.Job) (map[string]*entities.SkillGap, error) {

	gaps := make(map[string]*entities.SkillGap, len(jobs))

	var uncached []entities.Job
	for _, job := range jobs {
		if cached, found := a.cache.Get(a.cacheKey(profile, job.ID)); found {
			gaps[job.ID] = cached.(*entities.SkillGap)
			continue
		}
		uncached = append(uncached, job)
	}

	for _, batch := range lo.Chunk(uncached, gapBatchSize) {
		batchGaps, err := a.analyzeOneBatch(ctx, profile, batch)
		if err != nil {
			return nil, err
		}
		for id, gap := range batchGaps {
			gaps[id] = gap
			a.cache.SetDefault(a.cacheKey(profile, id), gap)
		}
	}

	return gaps, nil
}

// AnalyzeJob is a convenience wrapper for a single job.
func (a *SkillGapAnalyzer) AnalyzeJob(ctx context.Context, profile *entities.CandidateProfile, job entities.Job) (*entities.SkillGap, error) {
	gaps, err := a.AnalyzeBatch(ctx, profile, []entities.Job{job})
	if err != nil {
		return nil, err
	}
	return gaps[job.ID], nil
}

func (a *SkillGapAnalyzer) analyzeOneBatch(ctx context.Context, profile *entities.CandidateProfile, jobs []entities.Job) (map[string]*entities.SkillGap, error) {

	if a.ai == nil {
		return lexicalGaps(profile, jobs), nil
	}

	response, err := a.ai.GenerateText(ctx, gapPrompt(profile, jobs), 2048, 0.2)
	if err != nil {
		if errors.Is(err, gemini.ErrAllKeysExhausted) {
			return nil, errors.WithMessagef(ErrRateLimitExhausted, "skill gap analysis: %v", err)
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("skill gap analysis failed, using lexical fallback: %v", err)
		metrics.EnrichmentFallbacksCounter.WithLabelValues("skill_gap").Inc()
		return lexicalGaps(profile, jobs), nil
	}

	var parsed []gapResponse
	if err := json.Unmarshal([]byte(stripMarkdownFences(response)), &parsed); err != nil {
		log.Warnf("unparseable skill gap response, using lexical fallback: %v", err)
		metrics.EnrichmentFallbacksCounter.WithLabelValues("skill_gap").Inc()
		return lexicalGaps(profile, jobs), nil
	}

	byID := lo.SliceToMap(parsed, func(r gapResponse) (string, gapResponse) {
		return r.JobID, r
	})

	gaps := make(map[string]*entities.SkillGap, len(jobs))
	for _, job := range jobs {
		if r, ok := byID[job.ID]; ok {
			gaps[job.ID] = &entities.SkillGap{
				MissingSkills:   r.MissingSkills,
				MatchingSkills:  r.MatchingSkills,
				Recommendations: r.Recommendations,
			}
			continue
		}
		// The model skipped this job; fall back for it alone.
		gaps[job.ID] = lexicalGap(profile, job)
	}
	return gaps, nil
}

func (a *SkillGapAnalyzer) cacheKey(profile *entities.CandidateProfile, jobID string) string {

	skills := lo.Map(profile.Skills, func(s string, _ int) string {
		return strings.ToLower(s)
	})
	sort.Strings(skills)

	sum := sha256.Sum256([]byte(jobID + "|" + strings.Join(skills, ",")))
	return hex.EncodeToString(sum[:])
}

func lexicalGaps(profile *entities.CandidateProfile, jobs []entities.Job) map[string]*entities.SkillGap {
	gaps := make(map[string]*entities.SkillGap, len(jobs))
	for _, job := range jobs {
		gaps[job.ID] = lexicalGap(profile, job)
	}
	return gaps
}

// lexicalGap is the offline approximation: a case-insensitive set
// comparison of the job's skills against the candidate's.
func lexicalGap(profile *entities.CandidateProfile, job entities.Job) *entities.SkillGap {

	have := lo.Map(profile.Skills, func(s string, _ int) string {
		return strings.ToLower(s)
	})

	var matching, missing []string
	for _, skill := range job.Skills {
		if lo.Contains(have, strings.ToLower(skill)) {
			matching = append(matching, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	if len(missing) > maxFallbackMissing {
		missing = missing[:maxFallbackMissing]
	}

	var recommendations []string
	if len(missing) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Consider strengthening: %s", strings.Join(missing, ", ")))
	} else {
		recommendations = append(recommendations,
			"Your skills cover the listed requirements for this role")
	}

	return &entities.SkillGap{
		MissingSkills:   missing,
		MatchingSkills:  matching,
		Recommendations: recommendations,
	}
}

func gapPrompt(profile *entities.CandidateProfile, jobs []entities.Job) string {

	var b strings.Builder
	b.WriteString("Compare the candidate's skills against each job below.\n")
	b.WriteString(`Respond with a JSON array only, one object per job: [{"job_id": "...", "missing_skills": [...], "matching_skills": [...], "recommendations": [1-2 short suggestions]}]`)
	b.WriteString("\n\nCandidate skills: ")
	b.WriteString(strings.Join(profile.Skills, ", "))

	for _, job := range jobs {
		description := job.Description
		if runes := []rune(description); len(runes) > gapDescriptionLimit {
			description = string(runes[:gapDescriptionLimit])
		}
		b.WriteString(fmt.Sprintf("\n\nJob %s: %s at %s\nRequired skills: %s\nDescription: %s",
			job.ID, job.Position, job.Company, strings.Join(job.Skills, ", "), description))
	}
	return b.String()
}
