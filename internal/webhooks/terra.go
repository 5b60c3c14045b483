package webhooks

import (
	"context"
	"fmt"
	"math"
	"time"

	"fitsink/internal/models"
	"fitsink/internal/providers"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
)

// TerraEvent is the typed shape of a Terra webhook delivery. Data events
// carry a list of summaries; only the first entry is meaningful for the
// daily payloads Terra pushes.
type TerraEvent struct {
	Type   string      `json:"type" validate:"required"`
	Status string      `json:"status"`
	User   TerraUser   `json:"user"`
	Data   []TerraData `json:"data"`
}

type TerraUser struct {
	ReferenceID string `json:"reference_id"`
	UserID      string `json:"user_id"`
	Provider    string `json:"provider"`
}

type TerraData struct {
	Metadata            TerraMetadata          `json:"metadata"`
	Name                string                 `json:"name"`
	DistanceData        *TerraDistanceData     `json:"distance_data"`
	CaloriesData        *TerraCaloriesData     `json:"calories_data"`
	ActiveDurationsData *TerraActiveDurations  `json:"active_durations_data"`
	SleepDurationsData  *TerraSleepDurations   `json:"sleep_durations_data"`
	Measurements        *TerraBodyMeasurements `json:"measurements"`
}

type TerraMetadata struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type TerraDistanceData struct {
	Steps          *float64 `json:"steps"`
	DistanceMeters *float64 `json:"distance_meters"`
}

type TerraCaloriesData struct {
	TotalBurnedCalories *float64 `json:"total_burned_calories"`
}

type TerraActiveDurations struct {
	ActivitySeconds *float64 `json:"activity_seconds"`
}

type TerraSleepDurations struct {
	AsleepDurationSeconds *float64 `json:"asleep_duration_seconds"`
}

type TerraBodyMeasurements struct {
	WeightKg          *float64 `json:"weight_kg"`
	HeartRateBpm      *float64 `json:"heart_rate_bpm"`
	BodyFatPercentage *float64 `json:"body_fat_percentage"`
}

// ResolveUserID prefers the reference id this system handed Terra at
// connect time over Terra's own opaque user id.
func (e *TerraEvent) ResolveUserID() string {
	if e.User.ReferenceID != "" {
		return e.User.ReferenceID
	}
	return e.User.UserID
}

// firstData returns the leading summary of a data event, or nil when the
// event carries none.
func (e *TerraEvent) firstData() *TerraData {
	if len(e.Data) == 0 {
		return nil
	}
	return &e.Data[0]
}

// TerraEventType extracts the event discriminator without decoding the
// full payload.
func TerraEventType(body []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("%w: no type field", ErrMalformedPayload)
	}
	return envelope.Type, nil
}

func parseTerraEvent(body []byte) (*TerraEvent, error) {
	var event TerraEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	v := validate.Struct(&event)
	if !v.Validate() {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, v.Errors.OneError())
	}
	if event.ResolveUserID() == "" {
		return nil, fmt.Errorf("%w: no user identifier", ErrMalformedPayload)
	}
	return &event, nil
}

func terraMeta(extra map[string]any) models.Metadata {
	meta := models.Metadata{"source": "terra"}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}

func NormalizeTerraActivity(event *TerraEvent) ([]models.MetricRecord, error) {
	data := event.firstData()
	if data == nil {
		return nil, nil
	}
	timestamp, err := parseEventTime(data.Metadata.StartTime)
	if err != nil {
		return nil, err
	}
	userID := event.ResolveUserID()

	var metrics []models.MetricRecord

	if data.DistanceData != nil && data.DistanceData.Steps != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricSteps,
			Value:     *data.DistanceData.Steps,
			Unit:      "steps",
			Meta:      terraMeta(nil),
		})
	}

	if data.CaloriesData != nil && data.CaloriesData.TotalBurnedCalories != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricCalories,
			Value:     *data.CaloriesData.TotalBurnedCalories,
			Unit:      "kcal",
			Meta:      terraMeta(nil),
		})
	}

	if data.ActiveDurationsData != nil && data.ActiveDurationsData.ActivitySeconds != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricActiveMinutes,
			Value:     math.Round(*data.ActiveDurationsData.ActivitySeconds / 60),
			Unit:      "minutes",
			Meta:      terraMeta(nil),
		})
	}

	return metrics, nil
}

func NormalizeTerraBody(event *TerraEvent) ([]models.MetricRecord, error) {
	data := event.firstData()
	if data == nil || data.Measurements == nil {
		return nil, nil
	}
	timestamp, err := parseEventTime(data.Metadata.StartTime)
	if err != nil {
		return nil, err
	}
	userID := event.ResolveUserID()
	m := data.Measurements

	var metrics []models.MetricRecord

	if m.WeightKg != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricWeight,
			Value:     *m.WeightKg,
			Unit:      "kg",
			Meta:      terraMeta(nil),
		})
	}

	if m.HeartRateBpm != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricHeartRate,
			Value:     *m.HeartRateBpm,
			Unit:      "bpm",
			Meta:      terraMeta(nil),
		})
	}

	if m.BodyFatPercentage != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricBodyFat,
			Value:     *m.BodyFatPercentage,
			Unit:      "%",
			Meta:      terraMeta(nil),
		})
	}

	return metrics, nil
}

func NormalizeTerraSleep(event *TerraEvent) ([]models.MetricRecord, error) {
	data := event.firstData()
	if data == nil || data.SleepDurationsData == nil || data.SleepDurationsData.AsleepDurationSeconds == nil {
		return nil, nil
	}
	timestamp, err := parseEventTime(data.Metadata.StartTime)
	if err != nil {
		return nil, err
	}

	return []models.MetricRecord{{
		UserID:    event.ResolveUserID(),
		Timestamp: timestamp,
		Type:      models.MetricSleep,
		Value:     *data.SleepDurationsData.AsleepDurationSeconds / 3600,
		Unit:      "hours",
		Meta:      terraMeta(nil),
	}}, nil
}

// NormalizeTerraWorkout maps a workout summary onto a workout record. The
// duration is derived from the summary's own start/end window.
func NormalizeTerraWorkout(event *TerraEvent) (*models.WorkoutRecord, error) {
	data := event.firstData()
	if data == nil {
		return nil, nil
	}
	start, err := parseEventTime(data.Metadata.StartTime)
	if err != nil {
		return nil, err
	}

	activityType := data.Name
	if activityType == "" {
		activityType = "Unknown"
	}

	var durationMin *int
	if end, err := parseEventTime(data.Metadata.EndTime); err == nil {
		minutes := int(math.Round(end.Sub(start).Minutes()))
		durationMin = &minutes
	}

	extra := map[string]any{}
	if data.CaloriesData != nil && data.CaloriesData.TotalBurnedCalories != nil {
		extra["calories"] = *data.CaloriesData.TotalBurnedCalories
	}
	if data.DistanceData != nil && data.DistanceData.DistanceMeters != nil {
		extra["distance_meters"] = *data.DistanceData.DistanceMeters
	}

	return &models.WorkoutRecord{
		UserID:       event.ResolveUserID(),
		Timestamp:    start,
		ActivityType: activityType,
		DurationMin:  durationMin,
		Meta:         terraMeta(extra),
	}, nil
}

// NewTerraDispatcher wires every Terra event type this system handles.
// Nutrition events are acknowledged but deliberately skipped.
func NewTerraDispatcher(sink Sink, logger providers.Logger) *Dispatcher {
	d := NewDispatcher("terra", logger)

	metricsHandler := func(normalize func(*TerraEvent) ([]models.MetricRecord, error)) HandlerFunc {
		return func(ctx context.Context, body []byte) (Result, error) {
			event, err := parseTerraEvent(body)
			if err != nil {
				return Result{}, err
			}
			metrics, err := normalize(event)
			if err != nil {
				return Result{}, err
			}
			if len(metrics) == 0 {
				return Result{}, nil
			}
			return sink.WriteMetrics(ctx, metrics)
		}
	}

	authHandler := func(ctx context.Context, body []byte) (Result, error) {
		event, err := parseTerraEvent(body)
		if err != nil {
			return Result{}, err
		}
		userID := event.ResolveUserID()
		if event.Status != "success" {
			logger.Warnf(providers.TypeWebhook, "Terra auth for user %s via %s failed with status %q", userID, event.User.Provider, event.Status)
			return Result{}, nil
		}
		rec := &models.IntegrationRecord{
			UserID:         userID,
			Provider:       models.ProviderTerra,
			ProviderUserID: event.User.UserID,
			Status:         models.IntegrationConnected,
			Meta:           terraMeta(map[string]any{"terra_provider": event.User.Provider}),
			ConnectedAt:    time.Now().UTC(),
		}
		if err := sink.UpsertIntegration(ctx, rec); err != nil {
			return Result{}, err
		}
		logger.Infof(providers.TypeWebhook, "Terra user %s authenticated via %s", userID, event.User.Provider)
		return Result{Written: 1}, nil
	}

	deauthHandler := func(ctx context.Context, body []byte) (Result, error) {
		event, err := parseTerraEvent(body)
		if err != nil {
			return Result{}, err
		}
		userID := event.ResolveUserID()
		if err := sink.DisconnectIntegration(ctx, userID, models.ProviderTerra, event.User.UserID); err != nil {
			return Result{}, err
		}
		logger.Infof(providers.TypeWebhook, "Terra user %s deauthenticated", userID)
		return Result{Written: 1}, nil
	}

	workoutHandler := func(ctx context.Context, body []byte) (Result, error) {
		event, err := parseTerraEvent(body)
		if err != nil {
			return Result{}, err
		}
		workout, err := NormalizeTerraWorkout(event)
		if err != nil || workout == nil {
			return Result{}, err
		}
		return sink.WriteWorkout(ctx, workout)
	}

	d.Register("auth", authHandler)
	d.Register("deauth", deauthHandler)
	d.Register("activity", metricsHandler(NormalizeTerraActivity))
	d.Register("body", metricsHandler(NormalizeTerraBody))
	d.Register("sleep", metricsHandler(NormalizeTerraSleep))
	d.Register("workout", workoutHandler)
	d.RegisterIgnored("nutrition")

	return d
}
