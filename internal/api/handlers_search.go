package api

import (
	"net/http"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/services"
)

// handleSemanticSearch ranks stored jobs against a text query or a
// caller-supplied embedding.
func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req SemanticSearchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Query == "" && len(req.QueryEmbedding) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "either query or query_embedding is required")
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultSearchLimit
	}
	minSimilarity := defaultSearchMinSimilarity
	if req.MinSimilarity != nil {
		minSimilarity = *req.MinSimilarity
	}

	start := time.Now()

	var query entities.Vector
	if len(req.QueryEmbedding) > 0 {
		query = entities.Vector(req.QueryEmbedding)
		if !query.IsValid() {
			s.errorResponse(w, http.StatusBadRequest, "query_embedding must have exactly 768 dimensions")
			return
		}
	} else {
		embedded, err := s.enricher.Embed(r.Context(), req.Query)
		if err != nil {
			s.serviceError(w, err)
			return
		}
		query = embedded
	}

	results, err := s.search.Search(r.Context(), query,
		services.SearchFilters{
			Seniority: entities.Seniority(req.Seniority),
			Skills:    req.Skills,
		},
		services.SearchOptions{
			Limit:         req.Limit,
			MinSimilarity: minSimilarity,
		})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, SemanticSearchResponse{
		Query:            req.Query,
		Results:          results,
		Count:            len(results),
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	})
}

// handleSimilarJobs ranks jobs against a stored job's own embedding.
func (s *Server) handleSimilarJobs(w http.ResponseWriter, r *http.Request) {
	var req SimilarJobsRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultMatchLimit
	}

	start := time.Now()
	results, err := s.search.FindSimilarToJob(r.Context(), req.JobID, req.Limit)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, SemanticSearchResponse{
		Results:          results,
		Count:            len(results),
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	})
}
