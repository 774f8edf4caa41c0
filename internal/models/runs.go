package models

import (
	"encoding/json"
	"time"
)

// RunType is the training intensity of a run.
type RunType string

const (
	RunTypeEasy  RunType = "easy"
	RunTypeTempo RunType = "tempo"
	RunTypeLong  RunType = "long"
)

// Valid reports whether t is one of the known run types.
func (t RunType) Valid() bool {
	switch t {
	case RunTypeEasy, RunTypeTempo, RunTypeLong:
		return true
	}
	return false
}

// Surface is the terrain a run was done on.
type Surface string

const (
	SurfaceRoad  Surface = "road"
	SurfaceTrail Surface = "trail"
)

// Valid reports whether s is road or trail.
func (s Surface) Valid() bool {
	return s == SurfaceRoad || s == SurfaceTrail
}

// Run is one logged run. Runs are never edited in place; they are only
// added and removed.
type Run struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Distance float64   `json:"distance"` // miles
	Pace     string    `json:"pace"`     // "m:ss" per mile
	RunType  RunType   `json:"runType"`
	Surface  Surface   `json:"surface"`
}

// isoMillis matches the ISO-8601 form browsers produce with toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// MarshalJSON writes the date in UTC with millisecond precision.
func (r Run) MarshalJSON() ([]byte, error) {
	type alias Run
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(r), Date: r.Date.UTC().Format(isoMillis)})
}

// RunInput is the part of a run supplied by the person logging it. The ID
// and date are assigned when the run is stored.
type RunInput struct {
	Distance float64 `json:"distance"`
	Pace     string  `json:"pace"`
	RunType  RunType `json:"runType"`
	Surface  Surface `json:"surface"`
}
