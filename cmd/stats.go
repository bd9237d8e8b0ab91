package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/ndstream/internal/history"
	"github.com/arin/ndstream/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics and performance metrics",
	Long: `Display a dashboard of your ndstream usage: request counts, outcomes,
time to first token, generation speed and the models you use most.

Figures are computed from the local history in ~/.ndstream/history.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := history.Load(0)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		summary := stats.Summarize(entries)

		cyan := color.New(color.FgCyan, color.Bold)
		green := color.New(color.FgGreen)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.FgHiBlack)

		cyan.Fprintf(os.Stderr, "\n  📊 ndstream stats\n\n")

		if summary.TotalRequests == 0 {
			dim.Fprintln(os.Stderr, "  No data yet. Ask a few questions and come back.")
			fmt.Fprintln(os.Stderr)
			return nil
		}

		// Overview
		green.Fprintf(os.Stderr, "  Requests:    ")
		fmt.Fprintf(os.Stderr, "%d total", summary.TotalRequests)
		dim.Fprintf(os.Stderr, "  (%d today, %d this week)\n", summary.TodayCount, summary.ThisWeekCount)

		green.Fprintf(os.Stderr, "  Completed:   ")
		if summary.SuccessRate >= 90 {
			fmt.Fprintf(os.Stderr, "%.0f%%", summary.SuccessRate)
		} else {
			yellow.Fprintf(os.Stderr, "%.0f%%", summary.SuccessRate)
		}
		dim.Fprintf(os.Stderr, "  (%d cancelled, %d failed)\n", summary.Cancelled, summary.Failed)

		// Latency
		if summary.AvgFirstTokenMs > 0 {
			green.Fprintf(os.Stderr, "  First token: ")
			fmt.Fprintf(os.Stderr, "%dms avg\n", summary.AvgFirstTokenMs)
		}
		green.Fprintf(os.Stderr, "  Total time:  ")
		fmt.Fprintf(os.Stderr, "%dms avg\n", summary.AvgTotalMs)
		if summary.AvgTokensPerSec > 0 {
			green.Fprintf(os.Stderr, "  Speed:       ")
			fmt.Fprintf(os.Stderr, "%.1f tokens/s avg\n", summary.AvgTokensPerSec)
		}

		// Models
		if len(summary.TopModels) > 0 {
			fmt.Fprintln(os.Stderr)
			cyan.Fprintln(os.Stderr, "  Models")
			for _, mc := range summary.TopModels {
				pct := float64(mc.Count) / float64(summary.TotalRequests) * 100
				bar := strings.Repeat("█", int(pct/5))
				dim.Fprintf(os.Stderr, "  %-20s ", mc.Model)
				fmt.Fprintf(os.Stderr, "%s %d (%.0f%%)\n", bar, mc.Count, pct)
			}
		}

		// Failures
		if len(summary.TopErrors) > 0 {
			fmt.Fprintln(os.Stderr)
			cyan.Fprintln(os.Stderr, "  Common Errors")
			for i, ec := range summary.TopErrors {
				dim.Fprintf(os.Stderr, "  %d. ", i+1)
				fmt.Fprintf(os.Stderr, "%s ", oneLine(ec.Error, 60))
				dim.Fprintf(os.Stderr, "(%dx)\n", ec.Count)
			}
		}

		fmt.Fprintln(os.Stderr)
		return nil
	},
}
