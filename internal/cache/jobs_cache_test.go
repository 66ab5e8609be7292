package cache

import (
	"context"
	"testing"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/stretchr/testify/assert"
)

func Test_JobsCache_NilCacheIsInert(t *testing.T) {

	var c *JobsCache
	ctx := context.Background()

	assert.NoError(t, c.CacheJob(ctx, &entities.Job{ID: "j1"}))

	job, err := c.GetJob(ctx, "j1")
	assert.NoError(t, err)
	assert.Nil(t, job)

	ids, err := c.RecentJobIDs(ctx, 5)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}
