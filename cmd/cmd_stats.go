package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gratten/runlog/internal/models"
	"github.com/gratten/runlog/internal/stats"
	"github.com/gratten/runlog/internal/store"
	"github.com/gratten/runlog/internal/utils"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print mileage totals, the weekly trend and recent runs",
	RunE:  printStats,
}

var importCmd = &cobra.Command{
	Use:   "import [file.fit]",
	Short: "Add the running sessions from FIT activity files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  importFiles,
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func printStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, kv, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	d := stats.Summarize(s.Snapshot(), time.Now(), statsOptions())
	fmt.Fprintln(cmd.OutOrStdout(), renderDashboard(d))
	return nil
}

func miles(v float64) string {
	return humanize.FormatFloat("#,###.#", v) + " mi"
}

// renderDashboard lays the dashboard out as boxed terminal sections.
func renderDashboard(d stats.Dashboard) string {
	line := func(label string, v float64) string {
		return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + miles(v)
	}

	week := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("This week"),
		line("Total", d.Week.WeekTotal),
		line("Road", d.Week.WeekRoad),
		line("Trail", d.Week.WeekTrail),
	))
	allTime := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("All time"),
		line("Road", d.Surfaces.RoadTotal),
		line("Trail", d.Surfaces.TrailTotal),
		line("Combined", d.Surfaces.CombinedTotal),
	))
	types := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("By type"),
		line("Easy", d.RunTypes.EasyMiles),
		line("Tempo", d.RunTypes.TempoMiles),
		line("Long", d.RunTypes.LongMiles),
	))

	var trend strings.Builder
	for i, label := range d.Weekly.Labels {
		fmt.Fprintf(&trend, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", label)), miles(d.Weekly.Data[i]))
	}

	var recent strings.Builder
	if len(d.Recent) == 0 {
		recent.WriteString("No runs logged yet.")
	}
	for _, r := range d.Recent {
		fmt.Fprintf(&recent, "%-14s %5.1f mi  %-6s %-6s %-6s\n",
			humanize.Time(r.Date), r.Distance, r.Pace, r.RunType, r.Surface)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, week, allTime, types),
		boxStyle.Render(titleStyle.Render("Weekly mileage")+"\n"+strings.TrimRight(trend.String(), "\n")),
		boxStyle.Render(titleStyle.Render("Recent runs")+"\n"+strings.TrimRight(recent.String(), "\n")),
	)
}

func importFiles(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, kv, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	var runs []models.Run
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		imported, err := utils.ParseFIT(f, cfg.LongRunMiles)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		for _, im := range imported {
			runs = append(runs, store.NewRun(im.Input, im.Start))
		}
	}

	if _, err := s.AddAll(ctx, runs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d runs from %d files\n", len(runs), len(args))
	return nil
}
