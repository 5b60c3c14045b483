// Package repository wraps the database behind narrow interfaces. Writes
// are idempotent on each record's natural key: a conflicting insert is a
// no-op, never an error, which makes vendor webhook redelivery safe.
package repository

import (
	"context"

	"fitsink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MetricRepositoryInterface interface {
	// Insert persists one metric. Returns false when a record with the
	// same (user, type, timestamp) already exists.
	Insert(ctx context.Context, rec *models.MetricRecord) (bool, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type MetricRepository struct {
	db *gorm.DB
}

func NewMetricRepository(db *gorm.DB) MetricRepositoryInterface {
	return &MetricRepository{db: db}
}

func (r *MetricRepository) Insert(ctx context.Context, rec *models.MetricRecord) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "type"},
			{Name: "timestamp"},
		},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *MetricRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MetricRecord{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
