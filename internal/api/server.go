// Package api exposes the ingestion, search and resume matching
// operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/go-playground/validator/v10"
	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/services"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type jobsRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Job, error)
	GetAll(ctx context.Context, limit int) ([]entities.Job, error)
}

type jobsCache interface {
	GetJob(ctx context.Context, id string) (*entities.Job, error)
	RecentJobIDs(ctx context.Context, limit int) ([]string, error)
}

type enricher interface {
	ExtractProfile(ctx context.Context, resumeText string) (*entities.CandidateProfile, error)
	EmbedProfile(ctx context.Context, profile *entities.CandidateProfile, resumeText string) (entities.Vector, error)
	Embed(ctx context.Context, text string) (entities.Vector, error)
}

type searcher interface {
	Search(ctx context.Context, query entities.Vector, filters services.SearchFilters, opts services.SearchOptions) ([]services.SearchResult, error)
	FindSimilarToJob(ctx context.Context, jobID string, limit int) ([]services.SearchResult, error)
}

type gapAnalyzer interface {
	AnalyzeBatch(ctx context.Context, profile *entities.CandidateProfile, jobs []entities.Job) (map[string]*entities.SkillGap, error)
}

type Config struct {
	Port int

	// RetryBackoff is the wait schedule applied when resume matching hits
	// exhausted quota; its length bounds the number of retries.
	RetryBackoff []time.Duration
}

type Dependencies struct {
	Bus      EventBus.Bus
	Jobs     jobsRepository
	Cache    jobsCache // optional
	Enricher enricher
	Search   searcher
	Gaps     gapAnalyzer
}

type Server struct {
	httpServer *http.Server
	bus        EventBus.Bus
	jobs       jobsRepository
	cache      jobsCache
	enricher   enricher
	search     searcher
	gaps       gapAnalyzer
	validate   *validator.Validate
	backoff    []time.Duration
}

func NewServer(cfg Config, deps Dependencies) *Server {

	s := &Server{
		bus:      deps.Bus,
		jobs:     deps.Jobs,
		cache:    deps.Cache,
		enricher: deps.Enricher,
		search:   deps.Search,
		gaps:     deps.Gaps,
		validate: validator.New(),
		backoff:  cfg.RetryBackoff,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/jobs", track("/api/jobs", s.handleIngestJob))
	mux.HandleFunc("GET /api/jobs/recent", track("/api/jobs/recent", s.handleRecentJobs))
	mux.HandleFunc("POST /api/search/semantic", track("/api/search/semantic", s.handleSemanticSearch))
	mux.HandleFunc("POST /api/search/similar", track("/api/search/similar", s.handleSimilarJobs))
	mux.HandleFunc("GET /api/search/job/{id}", track("/api/search/job/{id}", s.handleGetJob))
	mux.HandleFunc("GET /api/search/stats", track("/api/search/stats", s.handleStats))
	mux.HandleFunc("POST /api/resume/match", track("/api/resume/match", s.handleResumeMatch))
	mux.HandleFunc("POST /api/resume/analyze", track("/api/resume/analyze", s.handleResumeAnalyze))
	mux.HandleFunc("POST /api/resume/skill-gap/{job_id}", track("/api/resume/skill-gap/{job_id}", s.handleSkillGap))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           withLogging(withCORS(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	log.Infof("api server listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, errorBody{Error: message})
}

// serviceError maps service failures onto HTTP statuses.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrRateLimitExhausted):
		s.errorResponse(w, http.StatusTooManyRequests, "ai quota exhausted, retry later")
	case errors.Is(err, services.ErrNotFound):
		s.errorResponse(w, http.StatusNotFound, err.Error())
	default:
		log.Errorf("request failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeAndValidate parses the JSON body into req and runs struct
// validation, writing a 400 itself on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
