package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

// Upsert stores the job with last-write-wins semantics on ID conflict.
func (j Jobs) Upsert(ctx context.Context, job *entities.Job) error {
	return j.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(job).Error
}

// GetByID returns nil without error when the job does not exist.
func (j Jobs) GetByID(ctx context.Context, id string) (*entities.Job, error) {
	var job entities.Job
	err := j.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetWithEmbeddings returns every job whose stored embedding parses to
// exactly the expected dimensionality; jobs with absent or malformed
// embeddings are silently excluded.
func (j Jobs) GetWithEmbeddings(ctx context.Context) ([]entities.Job, error) {
	var jobs []entities.Job
	err := j.db.WithContext(ctx).
		Where("embedding IS NOT NULL AND embedding != ''").
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	valid := jobs[:0]
	for _, job := range jobs {
		if job.HasEmbedding() {
			valid = append(valid, job)
		}
	}
	return valid, nil
}

// GetAll returns jobs newest first, regardless of embedding state.
func (j Jobs) GetAll(ctx context.Context, limit int) ([]entities.Job, error) {
	var jobs []entities.Job
	err := j.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (j Jobs) RemoveOlderThan(ctx context.Context, expirationTime time.Time) (int64, error) {
	res := j.db.WithContext(ctx).Delete(&entities.Job{}, "created_at < ?", expirationTime)
	return res.RowsAffected, res.Error
}
