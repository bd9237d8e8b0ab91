package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/ndstream/internal/ai"
	"github.com/arin/ndstream/internal/config"
	"github.com/arin/ndstream/internal/ui"
)

// errWarn marks a check that found something worth fixing but not fatal.
var errWarn = errors.New("warn")

func warnf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errWarn}, args...)...)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check server connectivity and configuration",
	Long: `Run a health check on your ndstream setup.
Verifies the configuration, that the server answers, and that the
configured model has been pulled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.FgHiBlack)
		cyan := color.New(color.FgCyan, color.Bold)

		cyan.Fprintf(os.Stderr, "\n  🩺 ndstream doctor\n\n")

		pass, fail, warn := 0, 0, 0

		check := func(name string, fn func() (string, error)) {
			var sp *ui.Spinner
			if !raw {
				sp = ui.NewSpinner(name)
				sp.Start()
			}
			detail, err := fn()
			switch {
			case errors.Is(err, errWarn):
				sp.Stop()
				yellow.Fprintf(os.Stderr, "  ⚠ %s\n", name)
				dim.Fprintf(os.Stderr, "    %s\n", strings.TrimPrefix(err.Error(), errWarn.Error()+": "))
				warn++
			case err != nil:
				sp.Fail(name)
				dim.Fprintf(os.Stderr, "    %s\n", err.Error())
				fail++
			default:
				sp.Success(checkLine(name, detail))
				pass++
			}
		}

		// 1. Configuration
		var cfg *config.Config
		check("Configuration valid", func() (string, error) {
			var err error
			cfg, err = loadConfig()
			if err != nil {
				return "", err
			}
			return config.Path(), nil
		})
		if cfg == nil {
			cfg = config.Default()
		}

		client := ai.NewClient(cfg, ai.WithLogger(newLogger(cfg)))
		timeout := cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = ai.DefaultConnectTimeout
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*timeout)
		defer cancel()

		// 2. Ollama CLI installed, only relevant for local servers
		check("Ollama installed", func() (string, error) {
			out, err := exec.Command("ollama", "--version").CombinedOutput()
			if err != nil {
				return "", warnf("ollama not found; install from https://ollama.com or point --endpoint at a remote server")
			}
			return strings.TrimSpace(string(out)), nil
		})

		// 3. Server reachable
		reachable := false
		check("Server reachable", func() (string, error) {
			v, err := client.Version(ctx)
			if err != nil {
				return "", err
			}
			reachable = true
			return fmt.Sprintf("%s, version %s", client.Endpoint(), v), nil
		})

		// 4. Model pulled
		check(fmt.Sprintf("Model available (%s)", cfg.Model), func() (string, error) {
			if !reachable {
				return "", warnf("skipped, server not reachable")
			}
			models, err := client.Models(ctx)
			if err != nil {
				return "", err
			}
			if hasModel(models, cfg.Model) {
				return "ready", nil
			}
			return "", fmt.Errorf("model not found, run: ollama pull %s", cfg.Model)
		})

		// 5. Config directory
		check("Config directory", func() (string, error) {
			dir := config.Dir()
			info, err := os.Stat(dir)
			if err != nil {
				return "", warnf("%s not found, will be created on first use", dir)
			}
			if !info.IsDir() {
				return "", fmt.Errorf("%s exists but is not a directory", dir)
			}
			return dir, nil
		})

		// 6. OS and arch
		check("System info", func() (string, error) {
			return fmt.Sprintf("%s/%s, connect timeout %s", runtime.GOOS, runtime.GOARCH, cfg.ConnectTimeout.Round(time.Millisecond)), nil
		})

		// Summary
		fmt.Fprintln(os.Stderr)
		total := pass + fail + warn
		if fail == 0 && warn == 0 {
			green.Fprintf(os.Stderr, "  All %d checks passed. You're good to go.\n\n", total)
		} else if fail == 0 {
			yellow.Fprintf(os.Stderr, "  %d passed, %d warnings. Everything works, but some things could be better.\n\n", pass, warn)
		} else {
			red.Fprintf(os.Stderr, "  %d passed, %d failed, %d warnings. Fix the failures above.\n\n", pass, fail, warn)
		}

		return nil
	},
}

// checkLine is the text of a passed check.
func checkLine(name, detail string) string {
	if detail == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, detail)
}

// hasModel matches name against installed models, treating a missing tag
// as ":latest" the way the server does.
func hasModel(models []ai.Model, name string) bool {
	want := name
	if !strings.Contains(want, ":") {
		want += ":latest"
	}
	for _, m := range models {
		if m.Name == name || m.Name == want {
			return true
		}
	}
	return false
}
