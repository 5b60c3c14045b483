package repository

import (
	"context"

	"fitsink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IntegrationRepositoryInterface interface {
	// Upsert creates or refreshes the single (user, provider) row.
	Upsert(ctx context.Context, rec *models.IntegrationRecord) error
	// MarkDisconnected flips the row's status. providerUserID narrows the
	// match when the vendor supplies one; the row is never deleted.
	MarkDisconnected(ctx context.Context, userID string, provider models.Provider, providerUserID string) error
	Find(ctx context.Context, userID string, provider models.Provider) (*models.IntegrationRecord, error)
}

type IntegrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) IntegrationRepositoryInterface {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) Upsert(ctx context.Context, rec *models.IntegrationRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "provider"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_user_id", "status", "meta", "connected_at", "updated_at",
		}),
	}).Create(rec).Error
}

func (r *IntegrationRepository) MarkDisconnected(ctx context.Context, userID string, provider models.Provider, providerUserID string) error {
	q := r.db.WithContext(ctx).Model(&models.IntegrationRecord{}).
		Where("user_id = ? AND provider = ?", userID, provider)
	if providerUserID != "" {
		q = q.Where("provider_user_id = ?", providerUserID)
	}
	return q.Update("status", models.IntegrationDisconnected).Error
}

func (r *IntegrationRepository) Find(ctx context.Context, userID string, provider models.Provider) (*models.IntegrationRecord, error) {
	var rec models.IntegrationRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
