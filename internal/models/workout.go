package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"gorm.io/gorm"
)

// WorkoutSet is one entry of a strength workout: exercise name, rep count
// and the weight moved.
type WorkoutSet struct {
	Exercise string  `json:"exercise"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"`
}

// WorkoutSets is the ordered set list stored as a JSON column.
type WorkoutSets []WorkoutSet

func (s WorkoutSets) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *WorkoutSets) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into WorkoutSets", src)
	}
}

// VolumeLoad is the total tonnage of the sets: sum of reps x weight.
func (s WorkoutSets) VolumeLoad() float64 {
	var total float64
	for _, set := range s {
		total += float64(set.Reps) * set.Weight
	}
	return total
}

// WorkoutRecord is a single exercise session. Natural key for webhook
// deduplication is (UserID, Timestamp, ActivityType).
type WorkoutRecord struct {
	gorm.Model
	UserID       string    `gorm:"index;uniqueIndex:idx_workouts_natural;not null"`
	Timestamp    time.Time `gorm:"uniqueIndex:idx_workouts_natural;not null"`
	ActivityType string    `gorm:"uniqueIndex:idx_workouts_natural;not null"`
	DurationMin  *int
	Sets         WorkoutSets `gorm:"type:jsonb"`
	VolumeLoad   *float64
	RPE          *int
	Meta         Metadata `gorm:"type:jsonb"`
}

func (WorkoutRecord) TableName() string {
	return "workouts"
}

// NaturalKey returns the dedup key for this record.
func (w *WorkoutRecord) NaturalKey() string {
	return fmt.Sprintf("workout:%s:%d:%s", w.UserID, w.Timestamp.Unix(), w.ActivityType)
}

// Validate checks required fields, the RPE bounds and the volume load
// invariant (when sets are present, VolumeLoad must match them).
func (w *WorkoutRecord) Validate() error {
	if w.UserID == "" {
		return fmt.Errorf("workout has no user id")
	}
	if w.ActivityType == "" {
		return fmt.Errorf("workout has no activity type")
	}
	if w.RPE != nil && (*w.RPE < 1 || *w.RPE > 10) {
		return fmt.Errorf("workout rpe %d outside [1, 10]", *w.RPE)
	}
	if w.VolumeLoad != nil && len(w.Sets) > 0 && *w.VolumeLoad != w.Sets.VolumeLoad() {
		return fmt.Errorf("workout volume load %.2f does not match sets total %.2f", *w.VolumeLoad, w.Sets.VolumeLoad())
	}
	return nil
}
