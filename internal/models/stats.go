package models

import (
	"sort"
	"time"
)

// TrainingStats aggregates a user's completed workouts and runs.
type TrainingStats struct {
	TotalWorkouts       int64         `json:"total_workouts"`
	TotalSets           int64         `json:"total_sets"`
	TotalVolume         float64       `json:"total_volume"`
	TotalRuns           int64         `json:"total_runs"`
	TotalDistanceMeters float64       `json:"total_distance_meters"`
	TotalRunSeconds     int64         `json:"total_run_seconds"`
	FirstWorkoutAt      *time.Time    `json:"first_workout_at"`
	LastWorkoutAt       *time.Time    `json:"last_workout_at"`
	RunsByType          []RunTypeStat `json:"runs_by_type"`
}

// RunTypeStat summarises the runs of one type.
type RunTypeStat struct {
	RunType         RunType `json:"run_type"`
	Count           int64   `json:"count"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int64   `json:"duration_seconds"`
}

// TrainingPeriod holds lifting and running totals for one week or month.
type TrainingPeriod struct {
	Period            string  `json:"period"`
	Workouts          int     `json:"workouts"`
	WorkingSets       int     `json:"working_sets"`
	TotalReps         int     `json:"total_reps"`
	TonnageKg         float64 `json:"tonnage_kg"`
	Runs              int     `json:"runs"`
	RunDistanceMeters float64 `json:"run_distance_meters"`
}

// Summary bucket names accepted by training summaries.
const (
	BucketWeek  = "1 week"
	BucketMonth = "1 month"
)

// PeriodStart truncates t (in UTC) to the start of its ISO week or month.
// Unknown buckets are treated as a month.
func PeriodStart(t time.Time, bucket string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if bucket == BucketWeek {
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// SortPeriods flattens a period map newest first.
func SortPeriods(m map[string]*TrainingPeriod) []TrainingPeriod {
	result := make([]TrainingPeriod, 0, len(m))
	for _, p := range m {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Period > result[j].Period })
	return result
}
