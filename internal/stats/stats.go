// Package stats derives mileage statistics from a snapshot of the run log.
// Every function is pure: it reads the slice it is given and never
// modifies it.
package stats

import (
	"fmt"
	"slices"
	"time"

	"github.com/gratten/runlog/internal/models"
)

const (
	DefaultWeeks       = 8
	DefaultRecentLimit = 10
)

// WeekTotals is the mileage since the start of the current week.
type WeekTotals struct {
	WeekStart time.Time `json:"weekStart"`
	WeekTotal float64   `json:"weekTotal"`
	WeekRoad  float64   `json:"weekRoad"`
	WeekTrail float64   `json:"weekTrail"`
}

// SurfaceTotals is all-time mileage split by surface.
type SurfaceTotals struct {
	RoadTotal     float64 `json:"roadTotal"`
	TrailTotal    float64 `json:"trailTotal"`
	CombinedTotal float64 `json:"combinedTotal"`
}

// TypeTotals is all-time mileage split by run type.
type TypeTotals struct {
	EasyMiles  float64 `json:"easyMiles"`
	TempoMiles float64 `json:"tempoMiles"`
	LongMiles  float64 `json:"longMiles"`
}

// Series is a labelled mileage trend, oldest bucket first.
type Series struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// WeekStart returns midnight of the most recent Sunday on or before now,
// in now's location.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
}

// WeekToDate sums the runs dated at or after the start of the current
// week. Runs not on road count toward the trail subtotal.
func WeekToDate(runs []models.Run, now time.Time) WeekTotals {
	out := WeekTotals{WeekStart: WeekStart(now)}
	for _, r := range runs {
		if r.Date.Before(out.WeekStart) {
			continue
		}
		out.WeekTotal += r.Distance
		if r.Surface == models.SurfaceRoad {
			out.WeekRoad += r.Distance
		} else {
			out.WeekTrail += r.Distance
		}
	}
	return out
}

// AllTimeTotals sums every run, partitioned by surface.
func AllTimeTotals(runs []models.Run) SurfaceTotals {
	var out SurfaceTotals
	for _, r := range runs {
		if r.Surface == models.SurfaceRoad {
			out.RoadTotal += r.Distance
		} else {
			out.TrailTotal += r.Distance
		}
	}
	out.CombinedTotal = out.RoadTotal + out.TrailTotal
	return out
}

// RunTypeTotals sums every run by type. Anything that is neither easy
// nor tempo counts as long.
func RunTypeTotals(runs []models.Run) TypeTotals {
	var out TypeTotals
	for _, r := range runs {
		switch r.RunType {
		case models.RunTypeEasy:
			out.EasyMiles += r.Distance
		case models.RunTypeTempo:
			out.TempoMiles += r.Distance
		default:
			out.LongMiles += r.Distance
		}
	}
	return out
}

// WeeklySeries buckets mileage into weeks trailing seven-day windows ending
// at now. Both ends of each window are inclusive, so a run dated exactly on
// a boundary counts toward both adjacent buckets.
func WeeklySeries(runs []models.Run, now time.Time, weeks int) Series {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	out := Series{
		Labels: make([]string, 0, weeks),
		Data:   make([]float64, 0, weeks),
	}
	for i := weeks - 1; i >= 0; i-- {
		end := now.AddDate(0, 0, -7*i)
		start := end.AddDate(0, 0, -7)

		var total float64
		for _, r := range runs {
			if !r.Date.Before(start) && !r.Date.After(end) {
				total += r.Distance
			}
		}
		out.Labels = append(out.Labels, fmt.Sprintf("Week %d", weeks-i))
		out.Data = append(out.Data, total)
	}
	return out
}

// RecentRuns returns up to limit runs, newest first. Runs with the same
// date keep their stored order.
func RecentRuns(runs []models.Run, limit int) []models.Run {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	sorted := append(make([]models.Run, 0, len(runs)), runs...)
	slices.SortStableFunc(sorted, func(a, b models.Run) int {
		return b.Date.Compare(a.Date)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
