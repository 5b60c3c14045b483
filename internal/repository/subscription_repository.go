package repository

import (
	"context"
	"time"

	"fitsink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepositoryInterface interface {
	Upsert(ctx context.Context, rec *models.SubscriptionRecord) error
	// UpdateStatusByCustomer returns false when no subscription is known
	// for the Stripe customer.
	UpdateStatusByCustomer(ctx context.Context, stripeCustomerID string, status models.SubscriptionStatus, periodEnd *time.Time) (bool, error)
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepositoryInterface {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, rec *models.SubscriptionRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_sub_id", "stripe_customer_id", "status", "plan", "current_period_end", "updated_at",
		}),
	}).Create(rec).Error
}

func (r *SubscriptionRepository) UpdateStatusByCustomer(ctx context.Context, stripeCustomerID string, status models.SubscriptionStatus, periodEnd *time.Time) (bool, error) {
	updates := map[string]any{"status": status}
	if periodEnd != nil {
		updates["current_period_end"] = *periodEnd
	}
	res := r.db.WithContext(ctx).Model(&models.SubscriptionRecord{}).
		Where("stripe_customer_id = ?", stripeCustomerID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
