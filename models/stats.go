package models

import (
	"fmt"
	"time"
)

const workoutDateLayout = "2006-01-02"

// WorkoutDate is a calendar day in YYYY-MM-DD form, used as the key of the
// weekly workout log.
type WorkoutDate string

// NewWorkoutDate truncates t to its UTC calendar day
func NewWorkoutDate(t time.Time) WorkoutDate {
	return WorkoutDate(t.UTC().Format(workoutDateLayout))
}

// ParseWorkoutDate accepts a plain date or a full RFC 3339 timestamp and
// normalizes it to its calendar day.
func ParseWorkoutDate(s string) (WorkoutDate, error) {
	if t, err := time.Parse(workoutDateLayout, s); err == nil {
		return NewWorkoutDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", fmt.Errorf("invalid workout date %q", s)
	}
	return NewWorkoutDate(t), nil
}

// WorkoutEntry is the workout logged for one day
type WorkoutEntry struct {
	WorkoutType string  `bson:"workout_type" json:"workoutType"`
	Duration    float64 `bson:"duration" json:"duration"` // minutes
}

// WeeklyWorkouts maps a day to the workout logged on it. Logging a second
// workout on the same day replaces the first.
type WeeklyWorkouts map[WorkoutDate]WorkoutEntry

// Stats holds the fitness and nutrition counters shown on the dashboard
type Stats struct {
	Calories          float64        `bson:"calories" json:"calories"`
	Protein           float64        `bson:"protein" json:"protein"` // grams
	Water             float64        `bson:"water" json:"water"`     // ml
	WorkoutsCompleted int            `bson:"workouts_completed" json:"workoutsCompleted"`
	Streak            int            `bson:"streak" json:"streak"`
	Points            int            `bson:"points" json:"points"`
	RestDays          int            `bson:"rest_days" json:"restDays"`
	LastWorkoutTime   string         `bson:"last_workout_time" json:"lastWorkoutTime"`
	LastWorkoutDate   WorkoutDate    `bson:"last_workout_date" json:"lastWorkoutDate"`
	WeeklyWorkouts    WeeklyWorkouts `bson:"weekly_workouts" json:"weeklyWorkouts"`
}
