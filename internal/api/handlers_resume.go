package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/services"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// handleResumeMatch runs the full matching pipeline: profile extraction,
// profile embedding, then similarity search. On exhausted quota the whole
// pipeline is retried per the backoff schedule before giving up with 429.
func (s *Server) handleResumeMatch(w http.ResponseWriter, r *http.Request) {
	var req ResumeMatchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultMatchLimit
	}
	if req.MinSimilarity == 0 {
		req.MinSimilarity = defaultMatchMinSimilarity
	}

	start := time.Now()

	var response ResumeMatchResponse
	err := s.withRateLimitRetry(r.Context(), func() error {
		matched, err := s.matchResume(r.Context(), req)
		if err != nil {
			return err
		}
		response = *matched
		return nil
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	response.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000
	s.jsonResponse(w, http.StatusOK, response)
}

func (s *Server) matchResume(ctx context.Context, req ResumeMatchRequest) (*ResumeMatchResponse, error) {

	profile, err := s.enricher.ExtractProfile(ctx, req.ResumeText)
	if err != nil {
		return nil, err
	}

	query, err := s.enricher.EmbedProfile(ctx, profile, req.ResumeText)
	if err != nil {
		return nil, err
	}

	results, err := s.search.Search(ctx, query, services.SearchFilters{}, services.SearchOptions{
		Limit:         req.Limit,
		MinSimilarity: req.MinSimilarity,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]MatchResult, 0, len(results))
	for _, result := range results {
		matches = append(matches, MatchResult{Job: result.Job, Similarity: result.Similarity})
	}

	includeGaps := req.IncludeSkillGap == nil || *req.IncludeSkillGap
	if includeGaps && len(matches) > 0 {
		withGaps := min(len(matches), matchesWithGaps)

		jobs := make([]entities.Job, 0, withGaps)
		for _, match := range matches[:withGaps] {
			jobs = append(jobs, match.Job)
		}

		gaps, err := s.gaps.AnalyzeBatch(ctx, profile, jobs)
		if err != nil {
			return nil, err
		}
		for i := range matches[:withGaps] {
			matches[i].SkillGap = gaps[matches[i].Job.ID]
		}
	}

	return &ResumeMatchResponse{Profile: profile, Matches: matches, TotalMatches: len(matches)}, nil
}

// handleResumeAnalyze extracts a structured profile without searching.
func (s *Server) handleResumeAnalyze(w http.ResponseWriter, r *http.Request) {
	var req ResumeAnalyzeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := s.enricher.ExtractProfile(r.Context(), req.ResumeText)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ResumeAnalyzeResponse{
		Profile:             profile,
		EmbeddingDimensions: entities.EmbeddingDimensions,
	})
}

// handleSkillGap compares a resume against one stored job.
func (s *Server) handleSkillGap(w http.ResponseWriter, r *http.Request) {
	var req SkillGapRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	jobID := r.PathValue("job_id")
	job, err := s.jobs.GetByID(r.Context(), jobID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "job not found: "+jobID)
		return
	}

	profile, err := s.enricher.ExtractProfile(r.Context(), req.ResumeText)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	gaps, err := s.gaps.AnalyzeBatch(r.Context(), profile, []entities.Job{*job})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	job.Embedding = nil
	s.jsonResponse(w, http.StatusOK, SkillGapResponse{
		Job:       *job,
		Candidate: profile,
		Gap:       gaps[job.ID],
	})
}

// withRateLimitRetry re-runs op after each configured delay while it keeps
// failing on exhausted quota. Any other error, or running out of schedule,
// is returned as-is.
func (s *Server) withRateLimitRetry(ctx context.Context, op func() error) error {

	err := op()
	for _, delay := range s.backoff {
		if err == nil || !errors.Is(err, services.ErrRateLimitExhausted) {
			return err
		}

		log.Warnf("quota exhausted, retrying in %v", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		err = op()
	}
	return err
}
