package models

import (
	"time"

	"gorm.io/gorm"
)

type Provider string

const (
	ProviderVital       Provider = "VITAL"
	ProviderTerra       Provider = "TERRA"
	ProviderAppleHealth Provider = "APPLE_HEALTH"
	ProviderPolar       Provider = "POLAR"
	ProviderGoogleFit   Provider = "GOOGLEFIT"
	ProviderGarmin      Provider = "GARMIN"
)

func IsValidProvider(p Provider) bool {
	switch p {
	case ProviderVital, ProviderTerra, ProviderAppleHealth, ProviderPolar, ProviderGoogleFit, ProviderGarmin:
		return true
	}
	return false
}

type IntegrationStatus string

const (
	IntegrationConnected    IntegrationStatus = "CONNECTED"
	IntegrationDisconnected IntegrationStatus = "DISCONNECTED"
)

// IntegrationRecord tracks one user's link to one provider. There is at
// most one row per (UserID, Provider); connection events upsert it and
// deauthorization flips the status, nothing ever deletes it silently.
type IntegrationRecord struct {
	gorm.Model
	UserID         string   `gorm:"uniqueIndex:idx_integrations_natural;not null"`
	Provider       Provider `gorm:"uniqueIndex:idx_integrations_natural;not null"`
	ProviderUserID string
	Status         IntegrationStatus `gorm:"not null"`
	Meta           Metadata          `gorm:"type:jsonb"`
	ConnectedAt    time.Time
}

func (IntegrationRecord) TableName() string {
	return "integrations"
}
