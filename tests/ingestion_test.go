package tests

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/events"
	"github.com/jobvector/jobvector/internal/repositories"
	"github.com/jobvector/jobvector/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var posting = entities.Job{
	ID:       "it-1",
	Company:  "Acme",
	Position: "Senior Python Developer",
	Location: "Remote",
	Description: "We need a senior engineer with Python, Docker and PostgreSQL " +
		"experience to build and operate our data ingestion services.",
}

func clearDb() {
	dbCtx.DB.Exec("DELETE from jobs_enriched WHERE TRUE")
	dbCtx.DB.Exec("DELETE from failed_jobs WHERE TRUE")
}

func Test_Ingestion_PostedJobIsEnrichedAndSearchable(t *testing.T) {

	defer clearDb()

	bus := EventBus.New()
	jobs := repositories.NewJobsRepository(dbCtx.DB)
	failed := repositories.NewFailedJobsRepository(dbCtx.DB)
	enricher := services.NewEnricher(nil)

	worker, err := services.NewIngestWorker(bus, enricher, jobs, failed, nil)
	require.NoError(t, err)
	defer worker.Stop()

	enriched := make(chan events.JobEnriched, 1)
	require.NoError(t, bus.Subscribe(events.JobEnrichedTopic, func(e events.JobEnriched) {
		enriched <- e
	}))

	bus.Publish(events.JobPostedTopic, events.JobPosted{Job: posting})

	select {
	case event := <-enriched:
		assert.Equal(t, posting.ID, event.JobID)
	case <-time.After(5 * time.Second):
		t.Fatal("job was never enriched")
	}

	ctx := context.Background()
	stored, err := jobs.GetByID(ctx, posting.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.True(t, stored.HasEmbedding())
	assert.Equal(t, entities.SenioritySenior, stored.Seniority)
	assert.Contains(t, stored.Skills, "python")
	assert.NotEmpty(t, stored.Summary)

	// the stored posting must come back through vector search
	search := services.NewSearchService(jobs)
	query, err := enricher.Embed(ctx, "senior python developer")
	require.NoError(t, err)

	results, err := search.Search(ctx, query, services.SearchFilters{},
		services.SearchOptions{Limit: 10, MinSimilarity: -1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, posting.ID, results[0].Job.ID)
	assert.Nil(t, results[0].Job.Embedding)
}

func Test_Ingestion_ReingestOverwritesPreviousVersion(t *testing.T) {

	defer clearDb()

	bus := EventBus.New()
	jobs := repositories.NewJobsRepository(dbCtx.DB)
	failed := repositories.NewFailedJobsRepository(dbCtx.DB)

	worker, err := services.NewIngestWorker(bus, services.NewEnricher(nil), jobs, failed, nil)
	require.NoError(t, err)
	defer worker.Stop()

	enriched := make(chan events.JobEnriched, 2)
	require.NoError(t, bus.Subscribe(events.JobEnrichedTopic, func(e events.JobEnriched) {
		enriched <- e
	}))

	bus.Publish(events.JobPostedTopic, events.JobPosted{Job: posting})
	select {
	case <-enriched:
	case <-time.After(5 * time.Second):
		t.Fatal("first enrichment did not complete")
	}

	updated := posting
	updated.Position = "Junior Python Developer"
	updated.Description = "Entry level Python role."
	bus.Publish(events.JobPostedTopic, events.JobPosted{Job: updated})
	select {
	case <-enriched:
	case <-time.After(5 * time.Second):
		t.Fatal("second enrichment did not complete")
	}

	stored, err := jobs.GetByID(context.Background(), posting.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Junior Python Developer", stored.Position)
	assert.Equal(t, entities.SeniorityJunior, stored.Seniority)
}
