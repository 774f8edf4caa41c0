package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/gratten/runlog/internal/models"
	"github.com/gratten/runlog/internal/stats"
)

func TestNewLogger(t *testing.T) {
	l, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = newLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = newLogger("bogus", false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestRenderDashboard(t *testing.T) {
	now := time.Now()
	runs := []models.Run{
		{ID: "a", Date: now.Add(-2 * time.Hour), Distance: 1234.5, Pace: "8:10", RunType: models.RunTypeLong, Surface: models.SurfaceRoad},
		{ID: "b", Date: now.Add(-26 * time.Hour), Distance: 4, Pace: "7:45", RunType: models.RunTypeTempo, Surface: models.SurfaceTrail},
	}
	out := renderDashboard(stats.Summarize(runs, now, stats.Options{Weeks: 3, RecentLimit: 5}))

	for _, want := range []string{"This week", "All time", "By type", "Week 3", "1,234.5 mi", "tempo", "8:10"} {
		assert.Contains(t, out, want)
	}

	empty := renderDashboard(stats.Summarize(nil, now, stats.Options{}))
	assert.Contains(t, empty, "No runs logged yet.")
}

func TestSeedAndStatsCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RUNLOG_STORAGE_BACKEND", "sqlite")
	t.Setenv("RUNLOG_SQLITE_PATH", filepath.Join(t.TempDir(), "runlog.db"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"seed"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Seeded")

	out.Reset()
	rootCmd.SetArgs([]string{"stats"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Weekly mileage")
	assert.NotContains(t, out.String(), "No runs logged yet.")
}
