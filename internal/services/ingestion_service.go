package services

import (
	"context"
	"fmt"
	"time"

	"fitsink/internal/models"
	"fitsink/internal/providers"
	"fitsink/internal/repository"
	"fitsink/internal/webhooks"
)

// IngestionServiceInterface is the idempotent writer behind the webhook
// pipeline. A batch is a set of independent inserts, not a transaction:
// a failure partway through leaves earlier records committed, and
// per-record failures are logged and counted rather than aborting the
// delivery. At-least-once ingestion with natural-key dedup is the model.
type IngestionServiceInterface interface {
	webhooks.Sink
}

type IngestionService struct {
	metrics       repository.MetricRepositoryInterface
	workouts      repository.WorkoutRepositoryInterface
	integrations  repository.IntegrationRepositoryInterface
	subscriptions repository.SubscriptionRepositoryInterface
	cache         providers.CacheProviderInterface
	stats         providers.MetricsProviderInterface
	logger        providers.Logger
}

func NewIngestionService(
	metrics repository.MetricRepositoryInterface,
	workouts repository.WorkoutRepositoryInterface,
	integrations repository.IntegrationRepositoryInterface,
	subscriptions repository.SubscriptionRepositoryInterface,
	cache providers.CacheProviderInterface,
	stats providers.MetricsProviderInterface,
	logger providers.Logger,
) IngestionServiceInterface {
	return &IngestionService{
		metrics:       metrics,
		workouts:      workouts,
		integrations:  integrations,
		subscriptions: subscriptions,
		cache:         cache,
		stats:         stats,
		logger:        logger,
	}
}

// seen marks a natural key in the dedup cache so redeliveries within the
// cache TTL skip the database round trip entirely.
var seenMarker = []byte{1}

func (s *IngestionService) WriteMetrics(ctx context.Context, recs []models.MetricRecord) (webhooks.Result, error) {
	var res webhooks.Result
	start := time.Now()

	for i := range recs {
		rec := &recs[i]

		if err := rec.Validate(); err != nil {
			res.Failed++
			s.logger.Warnf(providers.TypeDb, "Dropping metric: %s", err)
			continue
		}

		key := rec.NaturalKey()
		if _, hit := s.cache.Get(key); hit {
			res.Skipped++
			continue
		}

		created, err := s.metrics.Insert(ctx, rec)
		if err != nil {
			res.Failed++
			s.logger.Errorf(providers.TypeDb, "Failed to persist %s metric for user %s: %s", rec.Type, rec.UserID, err)
			continue
		}
		s.cache.Set(key, seenMarker)
		if created {
			res.Written++
		} else {
			res.Skipped++
		}
	}

	s.stats.ObservePersistenceDuration(time.Since(start))
	s.stats.IncRecordsWritten("metric", res.Written)
	s.stats.IncDuplicatesSkipped("metric", res.Skipped)
	s.stats.IncRecordFailures("metric", res.Failed)

	if res.Failed > 0 && res.Written == 0 && res.Skipped == 0 {
		return res, fmt.Errorf("all %d metric writes failed", res.Failed)
	}
	return res, nil
}

func (s *IngestionService) WriteWorkout(ctx context.Context, rec *models.WorkoutRecord) (webhooks.Result, error) {
	if rec.VolumeLoad == nil && len(rec.Sets) > 0 {
		load := rec.Sets.VolumeLoad()
		rec.VolumeLoad = &load
	}

	if err := rec.Validate(); err != nil {
		return webhooks.Result{Failed: 1}, fmt.Errorf("%w: %v", webhooks.ErrMalformedPayload, err)
	}

	key := rec.NaturalKey()
	if _, hit := s.cache.Get(key); hit {
		s.stats.IncDuplicatesSkipped("workout", 1)
		return webhooks.Result{Skipped: 1}, nil
	}

	start := time.Now()
	created, err := s.workouts.Insert(ctx, rec)
	s.stats.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		s.stats.IncRecordFailures("workout", 1)
		return webhooks.Result{Failed: 1}, fmt.Errorf("persist workout: %w", err)
	}

	s.cache.Set(key, seenMarker)
	if !created {
		s.stats.IncDuplicatesSkipped("workout", 1)
		return webhooks.Result{Skipped: 1}, nil
	}
	s.stats.IncRecordsWritten("workout", 1)
	return webhooks.Result{Written: 1}, nil
}

func (s *IngestionService) UpsertIntegration(ctx context.Context, rec *models.IntegrationRecord) error {
	if !models.IsValidProvider(rec.Provider) {
		return fmt.Errorf("%w: unknown provider %q", webhooks.ErrMalformedPayload, rec.Provider)
	}
	if err := s.integrations.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert integration: %w", err)
	}
	s.stats.IncRecordsWritten("integration", 1)
	return nil
}

func (s *IngestionService) DisconnectIntegration(ctx context.Context, userID string, provider models.Provider, providerUserID string) error {
	if err := s.integrations.MarkDisconnected(ctx, userID, provider, providerUserID); err != nil {
		return fmt.Errorf("disconnect integration: %w", err)
	}
	return nil
}

func (s *IngestionService) UpsertSubscription(ctx context.Context, rec *models.SubscriptionRecord) error {
	if err := s.subscriptions.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	s.stats.IncRecordsWritten("subscription", 1)
	return nil
}

func (s *IngestionService) MarkSubscriptionStatus(ctx context.Context, stripeCustomerID string, status models.SubscriptionStatus, periodEnd *time.Time) error {
	found, err := s.subscriptions.UpdateStatusByCustomer(ctx, stripeCustomerID, status, periodEnd)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if !found {
		s.logger.Warnf(providers.TypeDb, "No subscription found for Stripe customer %s", stripeCustomerID)
	}
	return nil
}
