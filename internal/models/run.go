package models

import (
	"time"

	"github.com/meltforce/ironlog/internal/format"
)

// RunType is the kind of running session.
type RunType string

const (
	RunEasy      RunType = "easy"
	RunTempo     RunType = "tempo"
	RunSpeed     RunType = "speed"
	RunIntervals RunType = "intervals"
	RunLong      RunType = "long"
	RunRecovery  RunType = "recovery"
	RunRace      RunType = "race"
)

// RunTypeInfo describes a run type for pickers.
type RunTypeInfo struct {
	Value       RunType `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// RunTypes lists the supported run types in display order.
var RunTypes = []RunTypeInfo{
	{RunEasy, "Easy Run", "Conversational pace"},
	{RunTempo, "Tempo Run", "Comfortably hard"},
	{RunSpeed, "Speed Work", "Fast intervals"},
	{RunIntervals, "Intervals", "Work/rest cycles"},
	{RunLong, "Long Run", "Extended distance"},
	{RunRecovery, "Recovery", "Very easy pace"},
	{RunRace, "Race", "Competition"},
}

// Valid reports whether t is a known run type.
func (t RunType) Valid() bool {
	for _, info := range RunTypes {
		if info.Value == t {
			return true
		}
	}
	return false
}

// Terrain is the surface a run took place on.
type Terrain string

const (
	TerrainRoad      Terrain = "road"
	TerrainTrail     Terrain = "trail"
	TerrainTrack     Terrain = "track"
	TerrainTreadmill Terrain = "treadmill"
)

// Valid reports whether t is a known terrain.
func (t Terrain) Valid() bool {
	switch t {
	case TerrainRoad, TerrainTrail, TerrainTrack, TerrainTreadmill:
		return true
	}
	return false
}

// Run is a row of the runs table.
type Run struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	RunType             RunType    `json:"run_type"`
	DistanceMeters      float64    `json:"distance_meters"`
	DurationSeconds     int        `json:"duration_seconds"`
	PaceSecondsPerKm    *float64   `json:"pace_seconds_per_km"`
	ElevationGainMeters *float64   `json:"elevation_gain_meters"`
	HeartRateAvg        *int       `json:"heart_rate_avg"`
	HeartRateMax        *int       `json:"heart_rate_max"`
	Notes               *string    `json:"notes"`
	Weather             *string    `json:"weather"`
	Terrain             *Terrain   `json:"terrain"`
	StartedAt           time.Time  `json:"started_at"`
	CompletedAt         *time.Time `json:"completed_at"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ComputePace sets PaceSecondsPerKm from distance and duration, or clears it
// when the distance is zero.
func (r *Run) ComputePace() {
	if r.DistanceMeters <= 0 {
		r.PaceSecondsPerKm = nil
		return
	}
	pace := format.CalculatePace(r.DistanceMeters, r.DurationSeconds)
	r.PaceSecondsPerKm = &pace
}
