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

// VitalEvent is the typed shape of a Vital webhook delivery. Every data
// field is optional in the source payload; absence means the metric is
// simply not emitted.
type VitalEvent struct {
	EventType    string    `json:"event_type" validate:"required"`
	UserID       string    `json:"user_id"`
	ClientUserID string    `json:"client_user_id"`
	Provider     string    `json:"provider"`
	Data         VitalData `json:"data"`
}

type VitalData struct {
	Date     string         `json:"date"`
	Sleep    *VitalSleep    `json:"sleep"`
	Activity *VitalActivity `json:"activity"`
	Body     *VitalBody     `json:"body"`
	Workout  *VitalWorkout  `json:"workout"`
}

type VitalSleep struct {
	Duration   *float64        `json:"duration"` // seconds
	Efficiency *float64        `json:"efficiency"`
	HRV        *VitalHRV       `json:"hrv"`
	HeartRate  *VitalHeartRate `json:"heart_rate"`
}

type VitalHRV struct {
	AvgHrvRmssd *float64 `json:"avg_hrv_rmssd"`
}

type VitalHeartRate struct {
	AvgHrBpm *float64 `json:"avg_hr_bpm"`
}

type VitalActivity struct {
	Steps *float64 `json:"steps"`
}

type VitalBody struct {
	WeightKg          *float64 `json:"weight_kg"`
	BodyFatPercentage *float64 `json:"body_fat_percentage"`
}

type VitalWorkout struct {
	ID        string          `json:"id"`
	Sport     string          `json:"sport"`
	Start     string          `json:"start"`
	Duration  *float64        `json:"duration"` // seconds
	Calories  *float64        `json:"calories"`
	HeartRate *VitalHeartRate `json:"heart_rate"`
}

// ResolveUserID prefers the client-supplied reference identifier; the
// vendor-side id is opaque to this system.
func (e *VitalEvent) ResolveUserID() string {
	if e.ClientUserID != "" {
		return e.ClientUserID
	}
	return e.UserID
}

// VitalEventType extracts the event discriminator without decoding the
// full payload.
func VitalEventType(body []byte) (string, error) {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if envelope.EventType == "" {
		return "", fmt.Errorf("%w: no event_type field", ErrMalformedPayload)
	}
	return envelope.EventType, nil
}

func parseVitalEvent(body []byte) (*VitalEvent, error) {
	var event VitalEvent
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

func vitalMeta(extra map[string]any) models.Metadata {
	meta := models.Metadata{"source": "vital"}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}

// NormalizeVitalSleep maps one sleep summary onto HRV, RHR and SLEEP
// metrics at the event's reporting date.
func NormalizeVitalSleep(event *VitalEvent) ([]models.MetricRecord, error) {
	timestamp, err := parseEventTime(event.Data.Date)
	if err != nil {
		return nil, err
	}
	userID := event.ResolveUserID()
	sleep := event.Data.Sleep
	if sleep == nil {
		return nil, nil
	}

	var metrics []models.MetricRecord

	if sleep.HRV != nil && sleep.HRV.AvgHrvRmssd != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricHRV,
			Value:     *sleep.HRV.AvgHrvRmssd,
			Unit:      "ms",
			Meta:      vitalMeta(nil),
		})
	}

	if sleep.HeartRate != nil && sleep.HeartRate.AvgHrBpm != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricRHR,
			Value:     *sleep.HeartRate.AvgHrBpm,
			Unit:      "bpm",
			Meta:      vitalMeta(nil),
		})
	}

	if sleep.Duration != nil {
		var extra map[string]any
		if sleep.Efficiency != nil {
			extra = map[string]any{"efficiency": *sleep.Efficiency}
		}
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricSleep,
			Value:     *sleep.Duration / 3600,
			Unit:      "hours",
			Meta:      vitalMeta(extra),
		})
	}

	return metrics, nil
}

func NormalizeVitalActivity(event *VitalEvent) ([]models.MetricRecord, error) {
	timestamp, err := parseEventTime(event.Data.Date)
	if err != nil {
		return nil, err
	}
	activity := event.Data.Activity
	if activity == nil || activity.Steps == nil {
		return nil, nil
	}

	return []models.MetricRecord{{
		UserID:    event.ResolveUserID(),
		Timestamp: timestamp,
		Type:      models.MetricSteps,
		Value:     *activity.Steps,
		Unit:      "steps",
		Meta:      vitalMeta(nil),
	}}, nil
}

func NormalizeVitalBody(event *VitalEvent) ([]models.MetricRecord, error) {
	timestamp, err := parseEventTime(event.Data.Date)
	if err != nil {
		return nil, err
	}
	userID := event.ResolveUserID()
	body := event.Data.Body
	if body == nil {
		return nil, nil
	}

	var metrics []models.MetricRecord

	if body.WeightKg != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricWeight,
			Value:     *body.WeightKg,
			Unit:      "kg",
			Meta:      vitalMeta(nil),
		})
	}

	if body.BodyFatPercentage != nil {
		metrics = append(metrics, models.MetricRecord{
			UserID:    userID,
			Timestamp: timestamp,
			Type:      models.MetricBodyFat,
			Value:     *body.BodyFatPercentage,
			Unit:      "%",
			Meta:      vitalMeta(nil),
		})
	}

	return metrics, nil
}

// NormalizeVitalWorkout maps a workout event onto a workout record. The
// timestamp is the workout's own start time, not the delivery time.
func NormalizeVitalWorkout(event *VitalEvent) (*models.WorkoutRecord, error) {
	workout := event.Data.Workout
	if workout == nil {
		return nil, nil
	}
	timestamp, err := parseEventTime(workout.Start)
	if err != nil {
		return nil, err
	}

	activityType := workout.Sport
	if activityType == "" {
		activityType = "other"
	}

	var durationMin *int
	if workout.Duration != nil {
		minutes := int(math.Round(*workout.Duration / 60))
		durationMin = &minutes
	}

	extra := map[string]any{}
	if workout.ID != "" {
		extra["workout_id"] = workout.ID
	}
	if workout.Calories != nil {
		extra["calories"] = *workout.Calories
	}
	if workout.HeartRate != nil && workout.HeartRate.AvgHrBpm != nil {
		extra["avg_hr_bpm"] = *workout.HeartRate.AvgHrBpm
	}

	return &models.WorkoutRecord{
		UserID:       event.ResolveUserID(),
		Timestamp:    timestamp,
		ActivityType: activityType,
		DurationMin:  durationMin,
		Meta:         vitalMeta(extra),
	}, nil
}

// NewVitalDispatcher wires every Vital event type this system handles.
func NewVitalDispatcher(sink Sink, logger providers.Logger) *Dispatcher {
	d := NewDispatcher("vital", logger)

	metricsHandler := func(normalize func(*VitalEvent) ([]models.MetricRecord, error)) HandlerFunc {
		return func(ctx context.Context, body []byte) (Result, error) {
			event, err := parseVitalEvent(body)
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

	sleepHandler := metricsHandler(NormalizeVitalSleep)
	activityHandler := metricsHandler(NormalizeVitalActivity)
	bodyHandler := metricsHandler(NormalizeVitalBody)

	workoutHandler := func(ctx context.Context, body []byte) (Result, error) {
		event, err := parseVitalEvent(body)
		if err != nil {
			return Result{}, err
		}
		workout, err := NormalizeVitalWorkout(event)
		if err != nil || workout == nil {
			return Result{}, err
		}
		return sink.WriteWorkout(ctx, workout)
	}

	connectedHandler := func(ctx context.Context, body []byte) (Result, error) {
		event, err := parseVitalEvent(body)
		if err != nil {
			return Result{}, err
		}
		rec := &models.IntegrationRecord{
			UserID:      event.ResolveUserID(),
			Provider:    models.ProviderVital,
			Status:      models.IntegrationConnected,
			Meta:        vitalMeta(map[string]any{"vital_provider": event.Provider}),
			ConnectedAt: time.Now().UTC(),
		}
		if err := sink.UpsertIntegration(ctx, rec); err != nil {
			return Result{}, err
		}
		logger.Infof(providers.TypeWebhook, "Vital user %s connected via %s", rec.UserID, event.Provider)
		return Result{Written: 1}, nil
	}

	disconnectedHandler := func(ctx context.Context, body []byte) (Result, error) {
		event, err := parseVitalEvent(body)
		if err != nil {
			return Result{}, err
		}
		userID := event.ResolveUserID()
		if err := sink.DisconnectIntegration(ctx, userID, models.ProviderVital, ""); err != nil {
			return Result{}, err
		}
		logger.Infof(providers.TypeWebhook, "Vital user %s disconnected", userID)
		return Result{Written: 1}, nil
	}

	d.Register("daily.data.sleep.created", sleepHandler)
	d.Register("daily.data.sleep.updated", sleepHandler)
	d.Register("daily.data.activity.created", activityHandler)
	d.Register("daily.data.activity.updated", activityHandler)
	d.Register("daily.data.body.created", bodyHandler)
	d.Register("daily.data.body.updated", bodyHandler)
	d.Register("daily.workouts.created", workoutHandler)
	d.Register("daily.workouts.updated", workoutHandler)
	d.Register("daily.data.workout_distance.created", workoutHandler)
	d.Register("daily.data.workout_duration.created", workoutHandler)
	d.Register("daily.data.workout_stream.created", workoutHandler)
	d.Register("user.connected", connectedHandler)
	d.Register("user.disconnected", disconnectedHandler)

	return d
}
