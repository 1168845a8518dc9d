package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipask/clipask/internal/config"
	"github.com/clipask/clipask/internal/exitcode"
	"github.com/clipask/clipask/internal/llm"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		path, _ := config.GetConfigPath()
		fmt.Printf("config file:      %s", path)
		if !config.Exists() {
			fmt.Print(" (not found, using defaults; run `clipask config init`)")
		}
		fmt.Println()
		fmt.Printf("provider:         %s\n", cfg.Provider)
		fmt.Printf("model:            %s\n", cfg.Model)
		fmt.Printf("api_key:          %s\n", maskSecret(cfg.APIKey))
		fmt.Printf("github_token:     %s\n", maskSecret(cfg.GitHubToken))
		fmt.Printf("base_url:         %s\n", orDefault(cfg.BaseURL, "(default)"))
		fmt.Printf("enable_streaming: %t\n", cfg.EnableStreaming)
		fmt.Printf("watch_dir:        %s\n", orDefault(cfg.WatchDir, "(unset)"))

		manager := llm.NewManager(cfg.Backend())
		current, _ := manager.Current()
		fmt.Println("backends:")
		for _, info := range manager.List() {
			marker := " "
			if current != nil && info.Provider == current.Provider() {
				marker = "*"
			}
			fmt.Printf("  %s [%d] %s (%s)\n", marker, info.Index, info.Provider, info.Model)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a config file with defaults and environment-variable references for
the credentials, so secrets stay out of the file itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		if !config.NeedsSetup() && !configForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}

		cfg := &config.Config{
			Provider:        "openai",
			Model:           "gpt-4o",
			APIKey:          "${OPENAI_API_KEY}",
			GitHubToken:     "${GITHUB_TOKEN}",
			EnableStreaming: true,
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Probe the current backend for availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		manager := llm.NewManager(cfg.Backend())
		backend, ok := manager.Current()
		if !ok {
			return exitcode.Unavailable("no backend configured")
		}
		fmt.Printf("testing %s (%s)...\n", backend.Provider(), backend.ModelName())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		reply, err := manager.TestCurrent(ctx)
		if err != nil {
			return exitcode.Unavailable(fmt.Sprintf("backend unavailable: %v", err))
		}
		fmt.Println(reply)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configTestCmd)
	rootCmd.AddCommand(configCmd)
}

func maskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
