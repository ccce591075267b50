package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Shows the configuration file path and the settings loaded from it.
Keys missing from the file show their defaults.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return notConfigured("config")
	}

	cfg, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cmd.Printf("File: %s\n", configStore.Path())
	cmd.Println()
	cmd.Println("[index]")
	cmd.Printf("  name:   %s\n", cfg.IndexName)
	cmd.Printf("  domain: %s\n", cfg.DomainIdentifier)
	cmd.Printf("  path:   %s\n", orDefault(cfg.IndexPath, "(data directory)"))
	cmd.Println()
	cmd.Println("[sync]")
	cmd.Printf("  max_items_per_batch: %d\n", cfg.MaxItemsPerBatch)
	cmd.Printf("  fetch_timeout:       %s\n", cfg.FetchTimeout)
	cmd.Printf("  fetch_attempts:      %d\n", cfg.FetchAttempts)
	if cfg.BatchesPerSecond > 0 {
		cmd.Printf("  batches_per_second:  %g\n", cfg.BatchesPerSecond)
	} else {
		cmd.Println("  batches_per_second:  unlimited")
	}
	cmd.Println()
	cmd.Println("[records]")
	cmd.Printf("  path:   %s\n", orDefault(cfg.RecordsPath, "(demo records)"))
	if cfg.GitHubRepository != "" {
		cmd.Printf("  github: %s (%s issues)\n", cfg.GitHubRepository, orDefault(cfg.GitHubIssueState, "open"))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return notConfigured("config")
	}

	path := configStore.Path()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config file: %w", err)
	}

	if err := configStore.Save(domain.DefaultSyncConfig()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cmd.Printf("Wrote %s\n", path)
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
