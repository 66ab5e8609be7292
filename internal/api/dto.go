package api

import (
	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/services"
)

const defaultSearchLimit = 10
const defaultSearchMinSimilarity = 0.5
const defaultMatchLimit = 5
const defaultMatchMinSimilarity = 0.3

// matchesWithGaps caps how many top matches get a skill gap analysis
// attached, keeping the combined prompt within one analyzer batch.
const matchesWithGaps = 3

type IngestJobRequest struct {
	ID          string   `json:"id" validate:"required"`
	Company     string   `json:"company" validate:"required"`
	Position    string   `json:"position" validate:"required"`
	Location    string   `json:"location"`
	URL         string   `json:"url" validate:"omitempty,url"`
	Tags        []string `json:"tags"`
	Description string   `json:"description" validate:"required"`
}

type IngestJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// SemanticSearchRequest carries either free text or a precomputed
// 768-dimensional embedding, never both. MinSimilarity is a pointer so an
// explicit 0 can be told apart from the 0.5 default.
type SemanticSearchRequest struct {
	Query          string    `json:"query"`
	QueryEmbedding []float32 `json:"query_embedding"`
	Seniority      string    `json:"seniority" validate:"omitempty,oneof=Junior Mid Senior Lead"`
	Skills         []string  `json:"skills"`
	Limit          int       `json:"limit" validate:"omitempty,gte=1,lte=100"`
	MinSimilarity  *float64  `json:"min_similarity" validate:"omitempty,gte=0,lte=1"`
}

type SemanticSearchResponse struct {
	Query            string                  `json:"query,omitempty"`
	Results          []services.SearchResult `json:"results"`
	Count            int                     `json:"count"`
	ProcessingTimeMs float64                 `json:"processing_time_ms"`
}

type SimilarJobsRequest struct {
	JobID string `json:"job_id" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
}

type ResumeMatchRequest struct {
	ResumeText    string  `json:"resume_text" validate:"required,min=20"`
	Limit         int     `json:"limit" validate:"omitempty,gte=1,lte=100"`
	MinSimilarity float64 `json:"min_similarity" validate:"gte=0,lte=1"`

	// IncludeSkillGap defaults to true when omitted.
	IncludeSkillGap *bool `json:"include_skill_gap"`
}

type MatchResult struct {
	Job        entities.Job       `json:"job"`
	Similarity float64            `json:"similarity"`
	SkillGap   *entities.SkillGap `json:"skill_gap,omitempty"`
}

type ResumeMatchResponse struct {
	Profile          *entities.CandidateProfile `json:"profile"`
	Matches          []MatchResult              `json:"matches"`
	TotalMatches     int                        `json:"total_matches"`
	ProcessingTimeMs float64                    `json:"processing_time_ms"`
}

type ResumeAnalyzeRequest struct {
	ResumeText string `json:"resume_text" validate:"required,min=20"`
}

type ResumeAnalyzeResponse struct {
	Profile             *entities.CandidateProfile `json:"profile"`
	EmbeddingDimensions int                        `json:"embedding_dimensions"`
}

type SkillGapRequest struct {
	ResumeText string `json:"resume_text" validate:"required,min=20"`
}

type SkillGapResponse struct {
	Job       entities.Job               `json:"job"`
	Candidate *entities.CandidateProfile `json:"candidate"`
	Gap       *entities.SkillGap         `json:"gap"`
}

type RecentJobsResponse struct {
	Jobs  []entities.Job `json:"jobs"`
	Count int            `json:"count"`
}

type skillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type StatsResponse struct {
	TotalJobs           int            `json:"total_jobs"`
	EmbeddedJobs        int            `json:"embedded_jobs"`
	EmbeddingDimensions int            `json:"embedding_dimensions"`
	BySeniority         map[string]int `json:"by_seniority"`
	UniqueSkills        int            `json:"unique_skills"`
	TopSkills           []skillCount   `json:"top_skills"`
}

type errorBody struct {
	Error string `json:"error"`
}
