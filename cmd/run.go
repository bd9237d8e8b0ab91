package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/ndstream/internal/ai"
	"github.com/arin/ndstream/internal/config"
	"github.com/arin/ndstream/internal/history"
	"github.com/arin/ndstream/internal/ui"
)

const maxStdin = 32 * 1024

func run(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if stdinData := readStdin(); stdinData != "" {
		if prompt == "" {
			prompt = stdinData
		} else {
			prompt = prompt + "\n\n" + stdinData
		}
	}
	if prompt == "" {
		return fmt.Errorf("please provide a prompt\n\nUsage: ndstream <your question>\nExample: ndstream why is the sky blue")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	client := ai.NewClient(cfg, ai.WithLogger(log))

	req := ai.Request{Model: cfg.Model, Prompt: prompt, System: systemFlag}
	_, err = streamAnswer(cmd.Context(), client, cfg, log, req, "")
	return err
}

// streamAnswer submits req and renders the answer to stdout until it
// completes, fails or the user presses Ctrl+C. A cancelled answer is not an
// error. label, when set, is printed just before the first token.
func streamAnswer(ctx context.Context, client *ai.Client, cfg *config.Config, log *slog.Logger, req ai.Request, label string) (ai.Outcome, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	obs := ai.NewChannelObserver(64)
	h := client.SubmitRequest(ctx, req, obs)

	var sp *ui.Spinner
	prefix := "  "
	if raw || label != "" {
		prefix = ""
	}
	if !raw {
		sp = ui.NewSpinner(fmt.Sprintf("Waiting for %s...", h.Request().Model))
		sp.Start()
	}

	_, err := ui.RenderStream(os.Stdout, obs.C(), prefix, func() {
		sp.Stop()
		if label != "" && !raw {
			color.New(color.FgCyan, color.Bold).Fprint(os.Stdout, label)
		}
	})
	sp.Stop()
	out := h.Wait()

	if cfg.History {
		if herr := history.Save(entryFor(h.ID(), h.Request(), out)); herr != nil {
			log.Debug("failed to save history", "error", herr)
		}
	}

	switch {
	case errors.Is(err, ai.ErrCancelled):
		if !raw {
			sp.Note("cancelled")
		}
		return out, nil
	case err != nil:
		return out, err
	}

	if out.EndedWithoutMarker {
		log.Debug("stream ended without a done record", "discarded", len(out.Discarded))
	}
	if showStats {
		printStats(os.Stderr, out)
	}
	return out, nil
}

// entryFor turns a finished request into a history entry.
func entryFor(id string, req ai.Request, out ai.Outcome) history.Entry {
	e := history.Entry{
		ID:           id,
		Timestamp:    out.Started,
		Model:        req.Model,
		Prompt:       promptOf(req),
		Response:     out.Text,
		Outcome:      out.State.String(),
		FirstTokenMs: out.TimeToFirstDelta().Milliseconds(),
		TotalMs:      out.Elapsed().Milliseconds(),
	}
	if out.Err != nil {
		e.Error = out.Err.Error()
	}
	if out.Final != nil {
		e.EvalCount = out.Final.EvalCount
		e.EvalDurationNs = out.Final.EvalDuration
	}
	return e
}

// promptOf is the user's text for req: the prompt, or the last user turn of
// a conversation.
func promptOf(req ai.Request) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

func printStats(w io.Writer, out ai.Outcome) {
	dim := color.New(color.FgHiBlack)
	parts := []string{}
	if out.Final != nil && out.Final.EvalCount > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", out.Final.EvalCount))
		if tps := out.Final.TokensPerSecond(); tps > 0 {
			parts = append(parts, fmt.Sprintf("%.1f tok/s", tps))
		}
	}
	if ttf := out.TimeToFirstDelta(); ttf > 0 {
		parts = append(parts, "first token "+ttf.Round(time.Millisecond).String())
	}
	parts = append(parts, "total "+out.Elapsed().Round(time.Millisecond).String())
	if out.ParseFailures > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped lines", out.ParseFailures))
	}
	dim.Fprintf(w, "  %s\n", strings.Join(parts, " · "))
}

func readStdin() string {
	info, err := os.Stdin.Stat()
	if err != nil {
		return ""
	}
	// Check if data is being piped in (not a terminal).
	if (info.Mode() & os.ModeCharDevice) != 0 {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdin+1))
	if err != nil {
		return ""
	}
	return truncateInput(strings.TrimSpace(string(data)), maxStdin)
}

// truncateInput cuts s to at most n bytes without splitting a character.
func truncateInput(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n... (truncated)"
}
