package repositories

import (
	"context"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FailedJobs struct {
	db *gorm.DB
}

func NewFailedJobsRepository(db *gorm.DB) *FailedJobs {
	return &FailedJobs{db: db}
}

func (f FailedJobs) Add(ctx context.Context, jobID string, errorText string) error {
	return f.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "job_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"error":      errorText,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": time.Now(),
			}),
		}).
		Create(&entities.FailedJob{JobID: jobID, Error: errorText}).Error
}

func (f FailedJobs) Get(ctx context.Context, maxAttempts int) ([]entities.FailedJob, error) {
	var failed []entities.FailedJob
	err := f.db.WithContext(ctx).
		Where("attempts <= ?", maxAttempts).
		Order("updated_at ASC").
		Find(&failed).Error
	return failed, err
}

func (f FailedJobs) Remove(ctx context.Context, jobID string) error {
	return f.db.WithContext(ctx).Delete(&entities.FailedJob{}, "job_id = ?", jobID).Error
}
