package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arin/ndstream/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ndstream configuration",
	Long: `Manage ndstream configuration.

Settings live in ~/.ndstream/config.json and can be overridden with
NDSTREAM_* environment variables (NDSTREAM_MODEL, NDSTREAM_ENDPOINT, ...),
a .env file in the current directory, or command-line flags.`,
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Set a bearer token for servers behind an authenticating proxy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetAPIKey(args[0]); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
		fmt.Println("API key saved successfully.")
		return nil
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model <model-name>",
	Short: "Set the default model (default: llama3.2:latest)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetModel(args[0]); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
		fmt.Printf("Model set to %s.\n", args[0])
		return nil
	},
}

var setEndpointCmd = &cobra.Command{
	Use:   "set-endpoint <url>",
	Short: "Set the server URL (default: http://localhost:11434)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetEndpoint(args[0]); err != nil {
			return fmt.Errorf("failed to save endpoint: %w", err)
		}
		fmt.Printf("Endpoint set to %s.\n", args[0])
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("Model:           %s\n", cfg.Model)
		fmt.Printf("Endpoint:        %s\n", cfg.Endpoint)
		fmt.Printf("API Key:         %s\n", maskKey(cfg.APIKey))
		fmt.Printf("Connect timeout: %s\n", cfg.ConnectTimeout)
		fmt.Printf("Read size:       %d bytes\n", cfg.ReadSize)
		fmt.Printf("History:         %t\n", cfg.History)
		fmt.Printf("Config File:     %s\n", config.Path())
		return nil
	},
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}

func init() {
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setModelCmd)
	configCmd.AddCommand(setEndpointCmd)
	configCmd.AddCommand(showCmd)
}
