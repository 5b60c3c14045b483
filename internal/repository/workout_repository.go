package repository

import (
	"context"

	"fitsink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkoutRepositoryInterface interface {
	// Insert persists one workout. Returns false when a record with the
	// same (user, timestamp, activity type) already exists, so redelivered
	// workout events do not pile up duplicate rows.
	Insert(ctx context.Context, rec *models.WorkoutRecord) (bool, error)
	FindByUser(ctx context.Context, userID string, limit, offset int) ([]models.WorkoutRecord, error)
}

type WorkoutRepository struct {
	db *gorm.DB
}

func NewWorkoutRepository(db *gorm.DB) WorkoutRepositoryInterface {
	return &WorkoutRepository{db: db}
}

func (r *WorkoutRepository) Insert(ctx context.Context, rec *models.WorkoutRecord) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "timestamp"},
			{Name: "activity_type"},
		},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *WorkoutRepository) FindByUser(ctx context.Context, userID string, limit, offset int) ([]models.WorkoutRecord, error) {
	var workouts []models.WorkoutRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc").
		Limit(limit).Offset(offset).
		Find(&workouts).Error
	return workouts, err
}
