// Package mock fabricates a believable four-week training history for
// demos and for an empty log.
package mock

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/gratten/runlog/internal/models"
	"github.com/gratten/runlog/internal/store"
	"github.com/gratten/runlog/internal/utils"
)

// Days is the length of the generated history, ending today.
const Days = 28

const (
	restDayChance = 0.25
	tempoChance   = 0.5
	roadChance    = 0.7
)

// Generator produces runs from its random source.
type Generator struct {
	rng   *rand.Rand
	newID func() string
}

// New returns a generator drawing from src. A nil src seeds from the clock.
func New(src rand.Source) *Generator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Generator{rng: rand.New(src), newID: store.NewID}
}

// Generate returns runs for the Days days ending on today, oldest first.
// Roughly one day in four is a rest day.
func (g *Generator) Generate(today time.Time) []models.Run {
	runs := make([]models.Run, 0, Days)
	y, m, d := today.Date()

	for daysAgo := Days - 1; daysAgo >= 0; daysAgo-- {
		if g.rng.Float64() < restDayChance {
			continue
		}

		hour := 6 + g.rng.IntN(12)
		date := time.Date(y, m, d-daysAgo, hour, today.Minute(), today.Second(), today.Nanosecond(), today.Location())

		runType := g.runType(date.Weekday())
		runs = append(runs, models.Run{
			ID:       g.newID(),
			Date:     date,
			Distance: g.roundedDistance(runType),
			Pace:     g.pace(runType),
			RunType:  runType,
			Surface:  g.surface(),
		})
	}

	slices.SortStableFunc(runs, func(a, b models.Run) int {
		return a.Date.Compare(b.Date)
	})
	return runs
}

// runType follows a simple weekly plan: long on Sunday, a coin flip between
// tempo and easy on Tuesday and Thursday, easy otherwise.
func (g *Generator) runType(day time.Weekday) models.RunType {
	switch day {
	case time.Sunday:
		return models.RunTypeLong
	case time.Tuesday, time.Thursday:
		if g.rng.Float64() < tempoChance {
			return models.RunTypeTempo
		}
		return models.RunTypeEasy
	default:
		return models.RunTypeEasy
	}
}

// distance is uniform in [10,16) for long runs, [5,8) for tempo and [3,7)
// for easy.
func (g *Generator) distance(t models.RunType) float64 {
	switch t {
	case models.RunTypeLong:
		return 10 + g.rng.Float64()*6
	case models.RunTypeTempo:
		return 5 + g.rng.Float64()*3
	default:
		return 3 + g.rng.Float64()*4
	}
}

// roundedDistance rounds a draw to one decimal place, keeping it below the
// range's upper bound.
func (g *Generator) roundedDistance(t models.RunType) float64 {
	d := utils.RoundTenth(g.distance(t))
	if upper := maxDistance(t); d >= upper {
		d = utils.RoundTenth(upper - 0.1)
	}
	return d
}

func maxDistance(t models.RunType) float64 {
	switch t {
	case models.RunTypeLong:
		return 16
	case models.RunTypeTempo:
		return 8
	default:
		return 7
	}
}

func (g *Generator) pace(t models.RunType) string {
	var minutes int
	if t == models.RunTypeTempo {
		// Always 7; the range holds a single value.
		minutes = 7 + g.rng.IntN(1)
	} else {
		minutes = 8 + g.rng.IntN(2)
	}
	return utils.FormatPace(minutes, g.rng.IntN(60))
}

func (g *Generator) surface() models.Surface {
	if g.rng.Float64() < roadChance {
		return models.SurfaceRoad
	}
	return models.SurfaceTrail
}
