package stats

import (
	"time"

	"github.com/gratten/runlog/internal/models"
)

// Options sizes the trend chart and the recent-runs table.
type Options struct {
	Weeks       int
	RecentLimit int
}

// Dashboard is everything the page needs to redraw after a change.
type Dashboard struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	RunCount    int           `json:"runCount"`
	Week        WeekTotals    `json:"week"`
	Surfaces    SurfaceTotals `json:"surfaces"`
	RunTypes    TypeTotals    `json:"runTypes"`
	Weekly      Series        `json:"weekly"`
	Recent      []models.Run  `json:"recent"`
}

// Summarize computes every statistic over runs as of now.
func Summarize(runs []models.Run, now time.Time, opts Options) Dashboard {
	return Dashboard{
		GeneratedAt: now,
		RunCount:    len(runs),
		Week:        WeekToDate(runs, now),
		Surfaces:    AllTimeTotals(runs),
		RunTypes:    RunTypeTotals(runs),
		Weekly:      WeeklySeries(runs, now, opts.Weeks),
		Recent:      RecentRuns(runs, opts.RecentLimit),
	}
}
