package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arin/ndstream/internal/config"
	"github.com/arin/ndstream/internal/logger"
)

var (
	modelFlag    string
	endpointFlag string
	systemFlag   string
	showStats    bool
	raw          bool
	debug        bool
	logJSON      bool
)

var rootCmd = &cobra.Command{
	Use:   "ndstream [prompt]",
	Short: "Stream answers from a local Ollama server",
	Long: `ndstream sends a prompt to an Ollama-compatible server and prints the
answer as it is generated.

Examples:
  ndstream why is the sky blue
  ndstream -m gemma3:1b "summarise this" < notes.txt
  git diff | ndstream write a commit message for this diff
  ndstream chat

Press Ctrl+C to stop an answer early.`,
	RunE:                       run,
	SilenceUsage:               true,
	SilenceErrors:              true,
	TraverseChildren:           true,
	SuggestionsMinimumDistance: 1,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&modelFlag, "model", "m", "", "Model to use (overrides config)")
	pf.StringVarP(&endpointFlag, "endpoint", "e", "", "Server URL (overrides config)")
	pf.StringVar(&systemFlag, "system", "", "System prompt")
	pf.BoolVar(&showStats, "stats", false, "Print token and timing stats after each answer")
	pf.BoolVar(&raw, "raw", false, "Plain output: no spinner, colours or indentation")
	pf.BoolVar(&debug, "debug", false, "Log request and stream details to stderr")
	pf.BoolVar(&logJSON, "log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute is the entry point called from main.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the stored configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if m := strings.TrimSpace(modelFlag); m != "" {
		cfg.Model = m
	}
	if e := strings.TrimSpace(endpointFlag); e != "" {
		cfg.Endpoint = strings.TrimRight(e, "/")
	}
	if debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(
		logger.WithDebug(cfg.Debug),
		logger.WithPretty(!raw),
		logger.WithJSON(logJSON),
	)
}
