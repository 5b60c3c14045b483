package webhooks

import (
	"context"
	"testing"

	"fitsink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- event type probe ---

func TestVitalEventType(t *testing.T) {
	eventType, err := VitalEventType([]byte(`{"event_type":"daily.data.sleep.created"}`))
	require.NoError(t, err)
	assert.Equal(t, "daily.data.sleep.created", eventType)
}

func TestVitalEventType_Malformed(t *testing.T) {
	_, err := VitalEventType([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = VitalEventType([]byte(`{"user_id":"u1"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

// --- user resolution ---

func TestVitalResolveUserID_PrefersClientUserID(t *testing.T) {
	event := &VitalEvent{UserID: "vital-opaque", ClientUserID: "user-42"}
	assert.Equal(t, "user-42", event.ResolveUserID())

	event = &VitalEvent{UserID: "vital-opaque"}
	assert.Equal(t, "vital-opaque", event.ResolveUserID())
}

// --- sleep normalization ---

func TestNormalizeVitalSleep_FullSummary(t *testing.T) {
	body := []byte(`{
		"event_type": "daily.data.sleep.created",
		"client_user_id": "user-42",
		"data": {
			"date": "2026-03-01",
			"sleep": {
				"duration": 27000,
				"efficiency": 0.93,
				"hrv": {"avg_hrv_rmssd": 58.5},
				"heart_rate": {"avg_hr_bpm": 52}
			}
		}
	}`)
	event, err := parseVitalEvent(body)
	require.NoError(t, err)

	metrics, err := NormalizeVitalSleep(event)
	require.NoError(t, err)
	require.Len(t, metrics, 3)

	byType := map[models.MetricType]models.MetricRecord{}
	for _, m := range metrics {
		byType[m.Type] = m
	}

	assert.Equal(t, 58.5, byType[models.MetricHRV].Value)
	assert.Equal(t, "ms", byType[models.MetricHRV].Unit)
	assert.Equal(t, 52.0, byType[models.MetricRHR].Value)
	assert.Equal(t, "bpm", byType[models.MetricRHR].Unit)
	assert.Equal(t, 7.5, byType[models.MetricSleep].Value) // 27000 s
	assert.Equal(t, "hours", byType[models.MetricSleep].Unit)
	assert.Equal(t, 0.93, byType[models.MetricSleep].Meta["efficiency"])

	for _, m := range metrics {
		assert.Equal(t, "user-42", m.UserID)
		assert.Equal(t, "vital", m.Meta["source"])
	}
}

func TestNormalizeVitalSleep_AbsentFieldsEmitNothing(t *testing.T) {
	body := []byte(`{
		"event_type": "daily.data.sleep.created",
		"client_user_id": "user-42",
		"data": {"date": "2026-03-01", "sleep": {"duration": 21600}}
	}`)
	event, err := parseVitalEvent(body)
	require.NoError(t, err)

	metrics, err := NormalizeVitalSleep(event)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, models.MetricSleep, metrics[0].Type)
	assert.Equal(t, 6.0, metrics[0].Value)
}

func TestNormalizeVitalSleep_NoSleepBlock(t *testing.T) {
	event := &VitalEvent{ClientUserID: "user-42", Data: VitalData{Date: "2026-03-01"}}

	metrics, err := NormalizeVitalSleep(event)
	require.NoError(t, err)
	assert.Empty(t, metrics)
}

// --- activity and body normalization ---

func TestNormalizeVitalActivity(t *testing.T) {
	steps := 10432.0
	event := &VitalEvent{
		ClientUserID: "user-42",
		Data:         VitalData{Date: "2026-03-01", Activity: &VitalActivity{Steps: &steps}},
	}

	metrics, err := NormalizeVitalActivity(event)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, models.MetricSteps, metrics[0].Type)
	assert.Equal(t, 10432.0, metrics[0].Value)
}

func TestNormalizeVitalBody(t *testing.T) {
	weight := 82.3
	bodyFat := 17.2
	event := &VitalEvent{
		ClientUserID: "user-42",
		Data: VitalData{
			Date: "2026-03-01",
			Body: &VitalBody{WeightKg: &weight, BodyFatPercentage: &bodyFat},
		},
	}

	metrics, err := NormalizeVitalBody(event)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, models.MetricWeight, metrics[0].Type)
	assert.Equal(t, 82.3, metrics[0].Value)
	assert.Equal(t, "kg", metrics[0].Unit)
	assert.Equal(t, models.MetricBodyFat, metrics[1].Type)
	assert.Equal(t, "%", metrics[1].Unit)
}

// --- workout normalization ---

func TestNormalizeVitalWorkout(t *testing.T) {
	duration := 2712.0
	calories := 640.0
	event := &VitalEvent{
		ClientUserID: "user-42",
		Data: VitalData{
			Workout: &VitalWorkout{
				ID:       "w-1",
				Sport:    "running",
				Start:    "2026-03-01T07:30:00Z",
				Duration: &duration,
				Calories: &calories,
			},
		},
	}

	workout, err := NormalizeVitalWorkout(event)
	require.NoError(t, err)
	require.NotNil(t, workout)
	assert.Equal(t, "user-42", workout.UserID)
	assert.Equal(t, "running", workout.ActivityType)
	require.NotNil(t, workout.DurationMin)
	assert.Equal(t, 45, *workout.DurationMin) // 2712 s rounds to 45 min
	assert.Equal(t, 640.0, workout.Meta["calories"])
	assert.Equal(t, "w-1", workout.Meta["workout_id"])
}

func TestNormalizeVitalWorkout_DefaultsSport(t *testing.T) {
	event := &VitalEvent{
		ClientUserID: "user-42",
		Data:         VitalData{Workout: &VitalWorkout{Start: "2026-03-01T07:30:00Z"}},
	}

	workout, err := NormalizeVitalWorkout(event)
	require.NoError(t, err)
	assert.Equal(t, "other", workout.ActivityType)
	assert.Nil(t, workout.DurationMin)
}

// --- dispatcher wiring ---

func TestVitalDispatcher_SleepEventWritesMetrics(t *testing.T) {
	sink := &mockSink{}
	d := NewVitalDispatcher(sink, &mockLogger{})

	body := []byte(`{
		"event_type": "daily.data.sleep.created",
		"client_user_id": "user-42",
		"data": {"date": "2026-03-01", "sleep": {"duration": 27000}}
	}`)

	res, handled, err := d.Dispatch(context.Background(), "daily.data.sleep.created", body)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, res.Written)
	require.Len(t, sink.metrics, 1)
	assert.Equal(t, 7.5, sink.metrics[0].Value)
}

func TestVitalDispatcher_ConnectedUpsertsIntegration(t *testing.T) {
	sink := &mockSink{}
	d := NewVitalDispatcher(sink, &mockLogger{})

	body := []byte(`{"event_type":"user.connected","client_user_id":"user-42","provider":"fitbit"}`)

	res, handled, err := d.Dispatch(context.Background(), "user.connected", body)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, res.Written)
	require.Len(t, sink.integrations, 1)
	assert.Equal(t, "user-42", sink.integrations[0].UserID)
	assert.Equal(t, models.ProviderVital, sink.integrations[0].Provider)
	assert.Equal(t, models.IntegrationConnected, sink.integrations[0].Status)
	assert.Equal(t, "fitbit", sink.integrations[0].Meta["vital_provider"])
}

func TestVitalDispatcher_DisconnectedMarksIntegration(t *testing.T) {
	sink := &mockSink{}
	d := NewVitalDispatcher(sink, &mockLogger{})

	body := []byte(`{"event_type":"user.disconnected","client_user_id":"user-42"}`)

	_, handled, err := d.Dispatch(context.Background(), "user.disconnected", body)

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, sink.disconnects, 1)
	assert.Equal(t, "user-42", sink.disconnects[0].userID)
	assert.Equal(t, models.ProviderVital, sink.disconnects[0].provider)
}

func TestVitalDispatcher_NoUserIdentifier(t *testing.T) {
	sink := &mockSink{}
	d := NewVitalDispatcher(sink, &mockLogger{})

	body := []byte(`{"event_type":"daily.data.sleep.created","data":{"date":"2026-03-01"}}`)

	_, _, err := d.Dispatch(context.Background(), "daily.data.sleep.created", body)

	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, sink.metrics)
}

func TestVitalDispatcher_EmptyNormalizationSkipsSink(t *testing.T) {
	sink := &mockSink{}
	d := NewVitalDispatcher(sink, &mockLogger{})

	body := []byte(`{"event_type":"daily.data.activity.created","client_user_id":"user-42","data":{"date":"2026-03-01","activity":{}}}`)

	res, handled, err := d.Dispatch(context.Background(), "daily.data.activity.created", body)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, sink.metrics)
}
