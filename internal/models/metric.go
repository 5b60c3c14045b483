package models

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// MetricType enumerates the unified metric kinds every provider payload is
// normalized onto.
type MetricType string

const (
	MetricSleep         MetricType = "SLEEP"
	MetricSleepQuality  MetricType = "SLEEP_QUALITY"
	MetricHRV           MetricType = "HRV"
	MetricRHR           MetricType = "RHR"
	MetricWeight        MetricType = "WEIGHT"
	MetricSteps         MetricType = "STEPS"
	MetricCalories      MetricType = "CALORIES"
	MetricHydration     MetricType = "HYDRATION"
	MetricMood          MetricType = "MOOD"
	MetricStress        MetricType = "STRESS"
	MetricSoreness      MetricType = "SORENESS"
	MetricHeartRate     MetricType = "HEART_RATE"
	MetricBodyFat       MetricType = "BODY_FAT"
	MetricActiveMinutes MetricType = "ACTIVE_MINUTES"
	MetricTemp          MetricType = "TEMP"
	MetricPressure      MetricType = "PRESSURE"
)

// metricRange bounds the plausible values per metric type. Values outside
// the range are rejected before they reach the writer.
type metricRange struct {
	Min float64
	Max float64
}

var metricRanges = map[MetricType]metricRange{
	MetricSleep:         {0, 24},
	MetricSleepQuality:  {0, 100},
	MetricHRV:           {0, 500},
	MetricRHR:           {20, 250},
	MetricWeight:        {20, 400},
	MetricSteps:         {0, 200000},
	MetricCalories:      {0, 20000},
	MetricHydration:     {0, 20000},
	MetricMood:          {1, 10},
	MetricStress:        {1, 10},
	MetricSoreness:      {1, 10},
	MetricHeartRate:     {20, 250},
	MetricBodyFat:       {1, 75},
	MetricActiveMinutes: {0, 1440},
	MetricTemp:          {30, 45},
	MetricPressure:      {40, 300},
}

// MetricRecord is a single normalized observation. The natural key used
// for deduplication is (UserID, Type, Timestamp).
type MetricRecord struct {
	gorm.Model
	UserID    string     `gorm:"index;uniqueIndex:idx_metrics_natural;not null"`
	Type      MetricType `gorm:"uniqueIndex:idx_metrics_natural;not null"`
	Timestamp time.Time  `gorm:"uniqueIndex:idx_metrics_natural;not null"`
	Value     float64    `gorm:"not null"`
	Unit      string
	Meta      Metadata `gorm:"type:jsonb"`
}

func (MetricRecord) TableName() string {
	return "metrics"
}

// NaturalKey returns the dedup key for this record.
func (m *MetricRecord) NaturalKey() string {
	return fmt.Sprintf("metric:%s:%s:%d", m.UserID, m.Type, m.Timestamp.Unix())
}

// Validate rejects records with an unknown type or a value outside the
// plausible range for it.
func (m *MetricRecord) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("metric has no user id")
	}
	r, ok := metricRanges[m.Type]
	if !ok {
		return fmt.Errorf("unknown metric type %q", m.Type)
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return fmt.Errorf("metric %s has non-finite value", m.Type)
	}
	if m.Value < r.Min || m.Value > r.Max {
		return fmt.Errorf("metric %s value %.2f outside plausible range [%.0f, %.0f]", m.Type, m.Value, r.Min, r.Max)
	}
	return nil
}
