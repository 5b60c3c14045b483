package models

import (
	"time"

	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

type SubscriptionPlan string

const (
	PlanFreeFinder SubscriptionPlan = "FREE_FINDER"
	PlanMonthly    SubscriptionPlan = "MONTHLY"
)

// SubscriptionRecord mirrors the billing state pushed by Stripe webhooks.
// One row per user, upserted on checkout completion.
type SubscriptionRecord struct {
	gorm.Model
	UserID           string             `gorm:"uniqueIndex;not null"`
	StripeSubID      string             `gorm:"index"`
	StripeCustomerID string             `gorm:"index"`
	Status           SubscriptionStatus `gorm:"not null"`
	Plan             SubscriptionPlan   `gorm:"not null"`
	CurrentPeriodEnd *time.Time
}

func (SubscriptionRecord) TableName() string {
	return "subscriptions"
}
