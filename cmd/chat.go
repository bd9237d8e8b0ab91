package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/ndstream/internal/ai"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start a conversation with the model. Earlier turns are sent along with
each new message so context carries over.

Ctrl+C stops the current answer. Type /reset to forget the conversation
and /exit to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		client := ai.NewClient(cfg, ai.WithLogger(log))

		cyan := color.New(color.FgCyan, color.Bold)
		dim := color.New(color.FgHiBlack)
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)

		fmt.Fprintln(os.Stderr)
		cyan.Fprintf(os.Stderr, "  ndstream chat")
		dim.Fprintf(os.Stderr, "  %s @ %s\n", cfg.Model, client.Endpoint())
		dim.Fprintf(os.Stderr, "  Type /reset to start over, /exit to quit.\n\n")

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), maxStdin)
		var conversation []ai.ChatMessage
		if systemFlag != "" {
			conversation = append(conversation, ai.ChatMessage{Role: ai.RoleSystem, Content: systemFlag})
		}
		base := len(conversation)

		for {
			green.Fprint(os.Stderr, "  you → ")
			if !scanner.Scan() {
				fmt.Fprintln(os.Stderr)
				break
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			switch input {
			case "/exit", "/quit", "exit", "quit":
				dim.Fprintf(os.Stderr, "\n  Bye.\n\n")
				return nil
			case "/reset":
				conversation = conversation[:base]
				dim.Fprintf(os.Stderr, "  Conversation cleared.\n\n")
				continue
			}

			conversation = append(conversation, ai.ChatMessage{Role: ai.RoleUser, Content: input})
			req := ai.Request{Model: cfg.Model, Chat: true, Messages: conversation}

			out, err := streamAnswer(cmd.Context(), client, cfg, log, req, "  ai → ")
			if err != nil {
				red.Fprintf(os.Stderr, "  Error: %v\n\n", err)
				conversation = conversation[:len(conversation)-1]
				continue
			}
			if out.State == ai.StateCancelled {
				// The partial answer is not kept, so the next message starts
				// from the last complete exchange.
				conversation = conversation[:len(conversation)-1]
				fmt.Fprintln(os.Stderr)
				continue
			}

			conversation = append(conversation, ai.ChatMessage{Role: ai.RoleAssistant, Content: out.Text})
			fmt.Fprintln(os.Stderr)
		}

		if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
			return fmt.Errorf("failed to read input: %w", err)
		}
		return nil
	},
}
