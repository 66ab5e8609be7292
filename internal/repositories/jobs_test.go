package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDb(t *testing.T) *DbContext {
	t.Helper()

	dbCtx, err := NewDbContext(":memory:")
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())

	t.Cleanup(func() {
		_ = dbCtx.Close()
	})
	return dbCtx
}

func validEmbedding() entities.Vector {
	v := make(entities.Vector, entities.EmbeddingDimensions)
	for i := range v {
		v[i] = float32(i)
	}
	return v
}

func Test_Jobs_UpsertOverwritesOnSameID(t *testing.T) {

	dbCtx := newTestDb(t)
	jobs := NewJobsRepository(dbCtx.DB)
	ctx := context.Background()

	job := entities.Job{ID: "j1", Company: "Acme", Position: "Engineer"}
	assert.NoError(t, jobs.Upsert(ctx, &job))

	job.Position = "Senior Engineer"
	job.Skills = []string{"go"}
	assert.NoError(t, jobs.Upsert(ctx, &job))

	stored, err := jobs.GetByID(ctx, "j1")
	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Senior Engineer", stored.Position)
	assert.Equal(t, entities.StringList{"go"}, stored.Skills)
}

func Test_Jobs_GetByIDReturnsNilWhenAbsent(t *testing.T) {

	dbCtx := newTestDb(t)
	jobs := NewJobsRepository(dbCtx.DB)

	job, err := jobs.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func Test_Jobs_GetWithEmbeddingsSkipsAbsentAndMalformed(t *testing.T) {

	dbCtx := newTestDb(t)
	jobs := NewJobsRepository(dbCtx.DB)
	ctx := context.Background()

	withEmbedding := entities.Job{ID: "good", Embedding: validEmbedding()}
	withoutEmbedding := entities.Job{ID: "bare"}
	wrongDimensions := entities.Job{ID: "short", Embedding: entities.Vector{1, 2, 3}}

	assert.NoError(t, jobs.Upsert(ctx, &withEmbedding))
	assert.NoError(t, jobs.Upsert(ctx, &withoutEmbedding))
	assert.NoError(t, jobs.Upsert(ctx, &wrongDimensions))

	embedded, err := jobs.GetWithEmbeddings(ctx)
	assert.NoError(t, err)
	require.Len(t, embedded, 1)
	assert.Equal(t, "good", embedded[0].ID)
}

func Test_Jobs_RemoveOlderThan(t *testing.T) {

	dbCtx := newTestDb(t)
	jobs := NewJobsRepository(dbCtx.DB)
	ctx := context.Background()

	old := entities.Job{ID: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := entities.Job{ID: "fresh", CreatedAt: time.Now()}
	assert.NoError(t, jobs.Upsert(ctx, &old))
	assert.NoError(t, jobs.Upsert(ctx, &fresh))

	removed, err := jobs.RemoveOlderThan(ctx, time.Now().Add(-24*time.Hour))
	assert.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	remaining, err := jobs.GetAll(ctx, 10)
	assert.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].ID)
}

func Test_FailedJobs_AddIncrementsAttempts(t *testing.T) {

	dbCtx := newTestDb(t)
	failed := NewFailedJobsRepository(dbCtx.DB)
	ctx := context.Background()

	assert.NoError(t, failed.Add(ctx, "j1", "quota exhausted"))
	assert.NoError(t, failed.Add(ctx, "j1", "quota exhausted again"))

	records, err := failed.Get(ctx, 5)
	assert.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "j1", records[0].JobID)
	assert.Equal(t, 2, records[0].Attempts)
	assert.Equal(t, "quota exhausted again", records[0].Error)
}

func Test_FailedJobs_GetFiltersByMaxAttempts(t *testing.T) {

	dbCtx := newTestDb(t)
	failed := NewFailedJobsRepository(dbCtx.DB)
	ctx := context.Background()

	assert.NoError(t, failed.Add(ctx, "once", "err"))
	for i := 0; i < 4; i++ {
		assert.NoError(t, failed.Add(ctx, "many", "err"))
	}

	records, err := failed.Get(ctx, 2)
	assert.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "once", records[0].JobID)
}

func Test_FailedJobs_Remove(t *testing.T) {

	dbCtx := newTestDb(t)
	failed := NewFailedJobsRepository(dbCtx.DB)
	ctx := context.Background()

	assert.NoError(t, failed.Add(ctx, "j1", "err"))
	assert.NoError(t, failed.Remove(ctx, "j1"))

	records, err := failed.Get(ctx, 5)
	assert.NoError(t, err)
	assert.Empty(t, records)
}
