package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/metrics"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrNotFound is returned when a referenced job does not exist.
var ErrNotFound = errors.New("job not found")

type jobsReader interface {
	GetByID(ctx context.Context, id string) (*entities.Job, error)
	GetWithEmbeddings(ctx context.Context) ([]entities.Job, error)
}

// SearchFilters narrow the candidate set before any scoring happens.
type SearchFilters struct {
	Seniority entities.Seniority
	Skills    []string
}

type SearchOptions struct {
	Limit         int
	MinSimilarity float64
}

type SearchResult struct {
	Job        entities.Job `json:"job"`
	Similarity float64      `json:"similarity"`
}

// SearchService ranks stored jobs against a query embedding with
// brute-force cosine similarity.
type SearchService struct {
	jobs jobsReader
}

func NewSearchService(jobs jobsReader) *SearchService {
	return &SearchService{jobs: jobs}
}

// Search scores every embedded job against the query and returns the top
// matches. Results at exactly MinSimilarity are included; ties are broken
// by job ID so rankings are stable across runs. Returned jobs carry no
// embedding payload.
func (s *SearchService) Search(ctx context.Context, query entities.Vector, filters SearchFilters, opts SearchOptions) ([]SearchResult, error) {

	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	if !query.IsValid() {
		return nil, errors.Errorf("query embedding must have %d dimensions, got %d",
			entities.EmbeddingDimensions, len(query))
	}

	jobs, err := s.jobs.GetWithEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(jobs))
	for _, job := range jobs {
		if !matchesFilters(&job, filters) {
			continue
		}

		similarity := query.CosineSimilarity(job.Embedding)
		if similarity < opts.MinSimilarity {
			continue
		}

		job.Embedding = nil
		results = append(results, SearchResult{Job: job, Similarity: roundSimilarity(similarity)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Job.ID < results[j].Job.ID
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// FindSimilarToJob ranks other jobs against the given job's own embedding.
func (s *SearchService) FindSimilarToJob(ctx context.Context, jobID string, limit int) ([]SearchResult, error) {

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errors.WithMessagef(ErrNotFound, "job %s", jobID)
	}
	if !job.HasEmbedding() {
		return nil, errors.Errorf("job %s has no embedding", jobID)
	}

	// One extra result absorbs the source job itself before exclusion.
	results, err := s.Search(ctx, job.Embedding, SearchFilters{}, SearchOptions{Limit: limit + 1})
	if err != nil {
		return nil, err
	}

	results = lo.Filter(results, func(r SearchResult, _ int) bool {
		return r.Job.ID != jobID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func matchesFilters(job *entities.Job, filters SearchFilters) bool {

	if filters.Seniority != "" && job.Seniority != filters.Seniority {
		return false
	}

	if len(filters.Skills) > 0 {
		jobSkills := lo.Map(job.Skills, func(s string, _ int) string {
			return strings.ToLower(s)
		})
		wanted := lo.Map(filters.Skills, func(s string, _ int) string {
			return strings.ToLower(s)
		})
		if len(lo.Intersect(jobSkills, wanted)) == 0 {
			return false
		}
	}
	return true
}

func roundSimilarity(similarity float64) float64 {
	return math.Round(similarity*10000) / 10000
}
