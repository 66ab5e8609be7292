package services

import (
	"context"
	"math"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/logger"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type backfillJobsRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Job, error)
	GetAll(ctx context.Context, limit int) ([]entities.Job, error)
	Upsert(ctx context.Context, job *entities.Job) error
}

type failedJobsRepository interface {
	Add(ctx context.Context, jobID string, errorText string) error
	Get(ctx context.Context, maxAttempts int) ([]entities.FailedJob, error)
	Remove(ctx context.Context, jobID string) error
}

const placeholderScanLimit = 1000

// Backfiller re-enriches jobs whose first enrichment attempt failed on
// quota, then sweeps stored jobs whose embedding is missing or looks like
// an offline placeholder. It runs hourly; a run stops early as soon as
// quota is exhausted again, leaving the remaining jobs for the next pass.
type Backfiller struct {
	jobs        backfillJobsRepository
	failed      failedJobsRepository
	enricher    *Enricher
	cron        *cron.Cron
	maxAttempts int
}

func NewBackfiller(jobs backfillJobsRepository, failed failedJobsRepository,
	enricher *Enricher, maxAttempts int) (*Backfiller, error) {

	if maxAttempts <= 0 {
		return nil, errors.New("max attempts must be greater than zero")
	}

	b := &Backfiller{
		jobs:        jobs,
		failed:      failed,
		enricher:    enricher,
		cron:        cron.New(),
		maxAttempts: maxAttempts,
	}

	_, err := b.cron.AddFunc("@every 1h", b.Run)
	if err != nil {
		return nil, err
	}

	b.cron.Start()
	log.Infof("enrichment backfiller started, max attempts: %d", maxAttempts)
	return b, nil
}

func (b *Backfiller) Stop() {
	b.cron.Stop()
}

// Run processes the failed-jobs queue and the placeholder sweep once.
// Exported so an operator can trigger it outside the schedule.
func (b *Backfiller) Run() {

	ctx := context.Background()

	if !b.processFailedQueue(ctx) {
		return
	}
	b.refreshPlaceholderEmbeddings(ctx)
}

// processFailedQueue retries queued failures. Returns false when quota ran
// out, so the caller skips the placeholder sweep too.
func (b *Backfiller) processFailedQueue(ctx context.Context) bool {

	failed, err := b.failed.Get(ctx, b.maxAttempts)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to load backfill queue: %v", err)
		return false
	}
	if len(failed) == 0 {
		return true
	}

	log.Infof("backfilling %d job(s)", len(failed))

	recovered := 0
	for _, record := range failed {
		job, err := b.jobs.GetByID(ctx, record.JobID)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to load job %s for backfill: %v", record.JobID, err)
			continue
		}
		if job == nil {
			// The posting was cleaned up while queued; drop the record.
			_ = b.failed.Remove(ctx, record.JobID)
			continue
		}

		if err := b.enricher.EnrichJob(ctx, job); err != nil {
			if errors.Is(err, ErrRateLimitExhausted) {
				log.Warnf("quota exhausted during backfill, deferring %s and the rest of the queue", record.JobID)
				return false
			}
			_ = b.failed.Add(ctx, record.JobID, err.Error())
			continue
		}

		if err := b.jobs.Upsert(ctx, job); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to store backfilled job %s: %v", record.JobID, err)
			continue
		}
		_ = b.failed.Remove(ctx, record.JobID)
		recovered++
	}

	log.Infof("backfill finished, recovered %d of %d job(s)", recovered, len(failed))
	return true
}

// refreshPlaceholderEmbeddings re-enriches stored jobs whose embedding is
// malformed or suspiciously flat across leading dimensions, which marks
// vectors that never came from the real embedding model.
func (b *Backfiller) refreshPlaceholderEmbeddings(ctx context.Context) {

	jobs, err := b.jobs.GetAll(ctx, placeholderScanLimit)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to scan jobs for placeholder embeddings: %v", err)
		return
	}

	refreshed := 0
	for i := range jobs {
		job := jobs[i]
		if !looksLikePlaceholder(job.Embedding) {
			continue
		}

		if err := b.enricher.EnrichJob(ctx, &job); err != nil {
			if errors.Is(err, ErrRateLimitExhausted) {
				log.Warnf("quota exhausted during placeholder sweep, deferring job %s and the rest", job.ID)
				return
			}
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
				Errorf("failed to re-enrich job %s: %v", job.ID, err)
			continue
		}

		if err := b.jobs.Upsert(ctx, &job); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to store refreshed job %s: %v", job.ID, err)
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		log.Infof("refreshed %d placeholder embedding(s) out of %d stored job(s)", refreshed, len(jobs))
	}
}

// looksLikePlaceholder flags vectors that are malformed or suspiciously
// flat across their leading dimensions. Real model embeddings vary from
// component to component.
func looksLikePlaceholder(embedding entities.Vector) bool {
	if len(embedding) != entities.EmbeddingDimensions {
		return true
	}

	var totalDiff float64
	for i := 1; i <= 5; i++ {
		totalDiff += math.Abs(float64(embedding[i] - embedding[i-1]))
	}
	return totalDiff/5 < 0.002
}
