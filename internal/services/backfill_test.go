package services

import (
	"context"
	"testing"

	"github.com/jobvector/jobvector/internal/clients/gemini"
	"github.com/jobvector/jobvector/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backfillJobsStub struct {
	jobs     map[string]*entities.Job
	upserted []string
}

func (s *backfillJobsStub) GetByID(_ context.Context, id string) (*entities.Job, error) {
	if job, ok := s.jobs[id]; ok {
		clone := *job
		return &clone, nil
	}
	return nil, nil
}

func (s *backfillJobsStub) GetAll(_ context.Context, _ int) ([]entities.Job, error) {
	out := make([]entities.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out, nil
}

func (s *backfillJobsStub) Upsert(_ context.Context, job *entities.Job) error {
	clone := *job
	s.jobs[job.ID] = &clone
	s.upserted = append(s.upserted, job.ID)
	return nil
}

type failedQueueStub struct {
	records []entities.FailedJob
	added   []string
	removed []string
}

func (s *failedQueueStub) Add(_ context.Context, jobID string, _ string) error {
	s.added = append(s.added, jobID)
	return nil
}

func (s *failedQueueStub) Get(_ context.Context, _ int) ([]entities.FailedJob, error) {
	return s.records, nil
}

func (s *failedQueueStub) Remove(_ context.Context, jobID string) error {
	s.removed = append(s.removed, jobID)
	return nil
}

func flatVector() entities.Vector {
	return make(entities.Vector, entities.EmbeddingDimensions)
}

func variedVector() entities.Vector {
	v := make(entities.Vector, entities.EmbeddingDimensions)
	for i := range v {
		v[i] = float32(i%5) * 0.2
	}
	return v
}

func Test_Backfill_RetriesQueuedFailures(t *testing.T) {

	jobs := &backfillJobsStub{jobs: map[string]*entities.Job{
		"j1": {ID: "j1", Company: "Acme", Position: "Engineer", Description: "Builds services with Python."},
	}}
	failed := &failedQueueStub{records: []entities.FailedJob{{JobID: "j1", Attempts: 1}}}

	b, err := NewBackfiller(jobs, failed, NewEnricher(nil), 3)
	require.NoError(t, err)
	defer b.Stop()

	b.Run()

	assert.Contains(t, jobs.upserted, "j1")
	assert.Contains(t, failed.removed, "j1")
	assert.True(t, jobs.jobs["j1"].HasEmbedding())
}

func Test_Backfill_RefreshesPlaceholderEmbeddings(t *testing.T) {

	jobs := &backfillJobsStub{jobs: map[string]*entities.Job{
		"flat": {ID: "flat", Company: "Acme", Position: "Engineer",
			Description: "Runs the Python platform.", Embedding: flatVector()},
		"real": {ID: "real", Company: "Acme", Position: "Analyst",
			Description: "Analyzes data.", Embedding: variedVector()},
	}}
	failed := &failedQueueStub{}

	b, err := NewBackfiller(jobs, failed, NewEnricher(nil), 3)
	require.NoError(t, err)
	defer b.Stop()

	b.Run()

	assert.Equal(t, []string{"flat"}, jobs.upserted)
	refreshed := jobs.jobs["flat"].Embedding
	assert.True(t, refreshed.IsValid())
	assert.NotEqual(t, flatVector(), refreshed)
	assert.False(t, looksLikePlaceholder(refreshed))
}

func Test_Backfill_QuotaExhaustionStopsPlaceholderSweep(t *testing.T) {

	jobs := &backfillJobsStub{jobs: map[string]*entities.Job{
		"flat": {ID: "flat", Company: "Acme", Position: "Engineer",
			Description: "desc", Embedding: flatVector()},
	}}
	failed := &failedQueueStub{}

	ai := &mockAI{generateErr: gemini.ErrAllKeysExhausted}
	b, err := NewBackfiller(jobs, failed, NewEnricher(ai), 3)
	require.NoError(t, err)
	defer b.Stop()

	b.Run()

	assert.Empty(t, jobs.upserted)
}

func Test_Backfill_QuotaDuringQueueSkipsPlaceholderSweep(t *testing.T) {

	jobs := &backfillJobsStub{jobs: map[string]*entities.Job{
		"j1":   {ID: "j1", Company: "Acme", Position: "Engineer", Description: "desc"},
		"flat": {ID: "flat", Company: "Acme", Position: "Analyst", Description: "desc", Embedding: flatVector()},
	}}
	failed := &failedQueueStub{records: []entities.FailedJob{{JobID: "j1", Attempts: 1}}}

	ai := &mockAI{generateErr: gemini.ErrAllKeysExhausted}
	b, err := NewBackfiller(jobs, failed, NewEnricher(ai), 3)
	require.NoError(t, err)
	defer b.Stop()

	b.Run()

	assert.Empty(t, jobs.upserted)
	assert.Empty(t, failed.removed)
}
