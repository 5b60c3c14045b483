// Package webhooks implements the ingestion pipeline for third-party
// webhook deliveries: signature verification, event dispatch and
// normalization of vendor payloads onto the unified record schema.
package webhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitsink/internal/models"
)

// ErrMalformedPayload marks deliveries whose body could not be decoded or
// failed schema validation. Handlers wrap their parse errors with it so
// the HTTP layer can answer 400 instead of 500.
var ErrMalformedPayload = errors.New("malformed payload")

// Result counts what happened to the normalized records of one delivery.
type Result struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (r *Result) Add(other Result) {
	r.Written += other.Written
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// Sink persists normalized records. Implemented by the ingestion service;
// every write is idempotent on the record's natural key.
type Sink interface {
	WriteMetrics(ctx context.Context, recs []models.MetricRecord) (Result, error)
	WriteWorkout(ctx context.Context, rec *models.WorkoutRecord) (Result, error)
	UpsertIntegration(ctx context.Context, rec *models.IntegrationRecord) error
	DisconnectIntegration(ctx context.Context, userID string, provider models.Provider, providerUserID string) error
	UpsertSubscription(ctx context.Context, rec *models.SubscriptionRecord) error
	MarkSubscriptionStatus(ctx context.Context, stripeCustomerID string, status models.SubscriptionStatus, periodEnd *time.Time) error
}

// parseEventTime accepts the timestamp formats the vendors actually send:
// RFC3339 instants and bare dates.
func parseEventTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q: %w", s, ErrMalformedPayload)
}
