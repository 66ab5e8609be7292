package services

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/events"
	"github.com/jobvector/jobvector/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const enrichmentTimeout = 2 * time.Minute

type jobsWriter interface {
	Upsert(ctx context.Context, job *entities.Job) error
}

type failedJobsWriter interface {
	Add(ctx context.Context, jobID string, errorText string) error
	Remove(ctx context.Context, jobID string) error
}

type jobCacher interface {
	CacheJob(ctx context.Context, job *entities.Job) error
}

// IngestWorker consumes posted jobs from the bus, enriches them and writes
// them through to storage and cache. Quota-exhausted jobs land in the failed
// table for the backfill pass instead of being stored half-enriched.
type IngestWorker struct {
	bus      EventBus.Bus
	enricher *Enricher
	jobs     jobsWriter
	failed   failedJobsWriter
	cache    jobCacher
}

// NewIngestWorker subscribes to the posted-jobs topic. The cache may be nil
// when Redis is not configured.
func NewIngestWorker(bus EventBus.Bus, enricher *Enricher, jobs jobsWriter,
	failed failedJobsWriter, cache jobCacher) (*IngestWorker, error) {

	w := &IngestWorker{
		bus:      bus,
		enricher: enricher,
		jobs:     jobs,
		failed:   failed,
		cache:    cache,
	}

	if err := bus.SubscribeAsync(events.JobPostedTopic, w.onJobPosted, false); err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to posted jobs")
	}
	return w, nil
}

func (w *IngestWorker) Stop() {
	if err := w.bus.Unsubscribe(events.JobPostedTopic, w.onJobPosted); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeBus).
			Errorf("failed to unsubscribe ingest worker: %v", err)
	}
}

func (w *IngestWorker) onJobPosted(event events.JobPosted) {

	ctx, cancel := context.WithTimeout(context.Background(), enrichmentTimeout)
	defer cancel()

	job := event.Job
	if err := w.enricher.EnrichJob(ctx, &job); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("enrichment of job %s failed: %v", job.ID, err)
		if addErr := w.failed.Add(ctx, job.ID, err.Error()); addErr != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to record failed job %s: %v", job.ID, addErr)
		}
		return
	}

	if err := w.jobs.Upsert(ctx, &job); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to store job %s: %v", job.ID, err)
		return
	}

	if err := w.failed.Remove(ctx, job.ID); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to clear failure record for job %s: %v", job.ID, err)
	}

	if w.cache != nil {
		if err := w.cache.CacheJob(ctx, &job); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).
				Errorf("failed to cache job %s: %v", job.ID, err)
		}
	}

	w.bus.Publish(events.JobEnrichedTopic, events.JobEnriched{
		JobID:    job.ID,
		Position: job.Position,
		Company:  job.Company,
	})
	log.Infof("job %s (%s at %s) enriched and stored", job.ID, job.Position, job.Company)
}
