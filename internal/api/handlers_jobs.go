package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/events"
	"github.com/jobvector/jobvector/internal/logger"
	log "github.com/sirupsen/logrus"
)

const statsSampleLimit = 1000
const topSkillsCount = 10

// handleIngestJob accepts a raw posting and hands it to the enrichment
// worker over the bus. The response is immediate; enrichment is async.
func (s *Server) handleIngestJob(w http.ResponseWriter, r *http.Request) {
	var req IngestJobRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	job := entities.Job{
		ID:          req.ID,
		Company:     req.Company,
		Position:    req.Position,
		Location:    req.Location,
		URL:         req.URL,
		Tags:        req.Tags,
		Description: req.Description,
	}

	s.bus.Publish(events.JobPostedTopic, events.JobPosted{Job: job})
	s.jsonResponse(w, http.StatusAccepted, IngestJobResponse{JobID: job.ID, Status: "queued"})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if s.cache != nil {
		cached, err := s.cache.GetJob(r.Context(), id)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).
				Errorf("cache lookup for job %s failed: %v", id, err)
		} else if cached != nil {
			cached.Embedding = nil
			s.jsonResponse(w, http.StatusOK, cached)
			return
		}
	}

	job, err := s.jobs.GetByID(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "job not found: "+id)
		return
	}

	job.Embedding = nil
	s.jsonResponse(w, http.StatusOK, job)
}

// handleRecentJobs serves the latest postings, preferring the Redis
// recency list and falling back to the database when the cache is cold
// or disabled.
func (s *Server) handleRecentJobs(w http.ResponseWriter, r *http.Request) {

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	if s.cache != nil {
		ids, err := s.cache.RecentJobIDs(r.Context(), limit)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).
				Errorf("recent jobs lookup failed: %v", err)
		} else if len(ids) > 0 {
			jobs := make([]entities.Job, 0, len(ids))
			for _, id := range ids {
				job, err := s.cache.GetJob(r.Context(), id)
				if err != nil || job == nil {
					continue
				}
				job.Embedding = nil
				jobs = append(jobs, *job)
			}
			s.jsonResponse(w, http.StatusOK, RecentJobsResponse{Jobs: jobs, Count: len(jobs)})
			return
		}
	}

	jobs, err := s.jobs.GetAll(r.Context(), limit)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	for i := range jobs {
		jobs[i].Embedding = nil
	}
	s.jsonResponse(w, http.StatusOK, RecentJobsResponse{Jobs: jobs, Count: len(jobs)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.jobs.GetAll(r.Context(), statsSampleLimit)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	stats := StatsResponse{
		TotalJobs:           len(jobs),
		EmbeddingDimensions: entities.EmbeddingDimensions,
		BySeniority:         make(map[string]int),
	}

	skillCounts := make(map[string]int)
	for _, job := range jobs {
		if job.HasEmbedding() {
			stats.EmbeddedJobs++
		}
		if job.Seniority != "" {
			stats.BySeniority[string(job.Seniority)]++
		}
		for _, skill := range job.Skills {
			skillCounts[strings.ToLower(skill)]++
		}
	}

	stats.UniqueSkills = len(skillCounts)
	stats.TopSkills = topSkills(skillCounts, topSkillsCount)
	s.jsonResponse(w, http.StatusOK, stats)
}

func topSkills(counts map[string]int, limit int) []skillCount {
	ranked := make([]skillCount, 0, len(counts))
	for skill, count := range counts {
		ranked = append(ranked, skillCount{Skill: skill, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Skill < ranked[j].Skill
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
