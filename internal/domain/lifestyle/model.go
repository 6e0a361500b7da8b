package lifestyle

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lifestyle maps to the lifestyle table. A user has at most one row.
type Lifestyle struct {
	ID                uuid.UUID `db:"id" json:"id"`
	UserID            uuid.UUID `db:"user_id" json:"userId"`
	SmokingStatus     *string   `db:"smoking_status" json:"smokingStatus,omitempty"`
	AlcoholUse        *string   `db:"alcohol_use" json:"alcoholUse,omitempty"`
	ExerciseFrequency *string   `db:"exercise_frequency" json:"exerciseFrequency,omitempty"`
	DietType          *string   `db:"diet_type" json:"dietType,omitempty"`
	SleepHours        *float64  `db:"sleep_hours" json:"sleepHours,omitempty"`
	StressLevel       *string   `db:"stress_level" json:"stressLevel,omitempty"`
	Notes             *string   `db:"notes" json:"notes,omitempty"`
	IsActive          bool      `db:"is_active" json:"isActive"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// IsEmpty reports whether no habit has been recorded yet.
func (l *Lifestyle) IsEmpty() bool {
	return l.SmokingStatus == nil && l.AlcoholUse == nil && l.ExerciseFrequency == nil &&
		l.DietType == nil && l.SleepHours == nil && l.StressLevel == nil
}

// Summary renders the recorded habits as one line, e.g.
// "smoking: former; alcohol: occasional; sleep: 7.5h".
func (l *Lifestyle) Summary() string {
	var parts []string
	add := func(label string, v *string) {
		if v != nil && *v != "" {
			parts = append(parts, label+": "+strings.ReplaceAll(*v, "_", " "))
		}
	}
	add("smoking", l.SmokingStatus)
	add("alcohol", l.AlcoholUse)
	add("exercise", l.ExerciseFrequency)
	add("diet", l.DietType)
	if l.SleepHours != nil {
		parts = append(parts, "sleep: "+strconv.FormatFloat(*l.SleepHours, 'f', -1, 64)+"h")
	}
	add("stress", l.StressLevel)
	return strings.Join(parts, "; ")
}

// Input is the body of PUT /lifestyle. Omitted fields keep their stored value.
type Input struct {
	SmokingStatus     *string  `json:"smokingStatus"`
	AlcoholUse        *string  `json:"alcoholUse"`
	ExerciseFrequency *string  `json:"exerciseFrequency"`
	DietType          *string  `json:"dietType"`
	SleepHours        *float64 `json:"sleepHours"`
	StressLevel       *string  `json:"stressLevel"`
	Notes             *string  `json:"notes"`
}
