package utils

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/filedef"
	"github.com/muktihari/fit/profile/typedef"

	"github.com/gratten/runlog/internal/models"
)

const metersPerMile = 1609.344

// ErrNoRuns is returned when a FIT file holds no running sessions.
var ErrNoRuns = errors.New("no running sessions in activity file")

// ImportedRun is a run read from an activity file, with the time it started.
type ImportedRun struct {
	Start time.Time
	Input models.RunInput
}

// ParseFIT decodes a FIT activity file and returns one run per running
// session. Sessions of at least longRunMiles are classed as long runs,
// everything else as easy.
func ParseFIT(r io.Reader, longRunMiles float64) ([]ImportedRun, error) {
	var out []ImportedRun

	dec := decoder.New(r)
	for dec.Next() {
		fit, err := dec.Decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIT file: %w", err)
		}
		activity := filedef.NewActivity(fit.Messages...)
		for _, s := range activity.Sessions {
			if s.Sport != typedef.SportRunning {
				continue
			}
			run, ok := runFromSession(
				s.TotalDistanceScaled(),
				s.TotalTimerTimeScaled(),
				s.StartTime,
				s.SubSport == typedef.SubSportTrail,
				longRunMiles,
			)
			if ok {
				out = append(out, run)
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoRuns
	}
	return out, nil
}

// runFromSession converts session totals (metres, seconds) into a run.
// Sessions without a usable distance are dropped.
func runFromSession(meters, seconds float64, start time.Time, trail bool, longRunMiles float64) (ImportedRun, bool) {
	if math.IsNaN(meters) || meters <= 0 {
		return ImportedRun{}, false
	}
	miles := RoundTenth(meters / metersPerMile)
	if miles <= 0 {
		return ImportedRun{}, false
	}

	runType := models.RunTypeEasy
	if longRunMiles > 0 && miles >= longRunMiles {
		runType = models.RunTypeLong
	}
	surface := models.SurfaceRoad
	if trail {
		surface = models.SurfaceTrail
	}

	return ImportedRun{
		Start: start,
		Input: models.RunInput{
			Distance: miles,
			Pace:     PaceFromDuration(seconds, meters/metersPerMile),
			RunType:  runType,
			Surface:  surface,
		},
	}, true
}
