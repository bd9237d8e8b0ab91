package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/ndstream/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent prompts and answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := history.Load(historyLimit)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No history yet.")
			return nil
		}

		cyan := color.New(color.FgCyan)
		dim := color.New(color.FgHiBlack)
		red := color.New(color.FgRed)
		green := color.New(color.FgGreen)
		yellow := color.New(color.FgYellow)

		for i, e := range entries {
			dim.Printf("[%s] ", e.Timestamp.Format("2006-01-02 15:04:05"))
			dim.Printf("%s ", e.Model)
			fmt.Printf("%s ", oneLine(e.Prompt, 60))
			switch e.Outcome {
			case history.OutcomeCompleted:
				green.Println("✓")
			case history.OutcomeCancelled:
				yellow.Println("⊘")
			default:
				red.Println("✗")
			}
			if e.Response != "" {
				cyan.Printf("  → %s\n", oneLine(e.Response, 76))
			}
			if e.Error != "" {
				red.Printf("  %s\n", oneLine(e.Error, 76))
			}
			if i < len(entries)-1 {
				fmt.Println()
			}
		}
		return nil
	},
}

// oneLine collapses whitespace and truncates s to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of history entries to show")
}
