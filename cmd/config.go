package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vectable/vectable-go/internal/config"
	"github.com/vectable/vectable-go/internal/errors"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Display the active configuration",
		Description: `Show the current active configuration including all settings from file and environment variables.`,
		Action:      runConfig,
	}
}

func runConfig(ctx context.Context, _ *cli.Command) error {
	return RunConfigWithConfig(getConfigFromContext(ctx))
}

func RunConfigWithConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New(errors.ErrTypeConfig, "failed to load configuration")
	}

	fmt.Println("====================")
	fmt.Println("Active Configuration:")

	fmt.Println("\nRemote:")
	fmt.Printf("  Base URL: %s\n", cfg.Remote.BaseURL)
	fmt.Printf("  API Key Set: %t\n", cfg.Remote.APIKey != "")
	fmt.Printf("  Timeout: %s\n", cfg.Remote.Timeout)

	fmt.Println("\nDatabase:")
	fmt.Printf("  Path: %s\n", cfg.Database.Path)
	fmt.Printf("  Max Connections: %d\n", cfg.Database.MaxConnections)
	fmt.Printf("  Query Timeout: %s\n", cfg.Database.QueryTimeout)

	fmt.Println("\nEmbedding:")
	fmt.Printf("  Enabled: %t\n", cfg.Embedding.Enabled)

	if cfg.Embedding.Enabled {
		fmt.Printf("  Provider: %s\n", cfg.Embedding.Provider)
		fmt.Printf("  Model: %s\n", cfg.Embedding.Model)
		fmt.Printf("  Dimensions: %d\n", cfg.Embedding.Dimensions)
		fmt.Printf("  Base URL: %s\n", cfg.Embedding.BaseURL)
		fmt.Printf("  API Key Set: %t\n", cfg.Embedding.APIKey != "")
	}

	fmt.Println("\nLogging:")
	fmt.Printf("  Level: %s\n", cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", cfg.Logging.Format)
	fmt.Printf("  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Output == "file" {
		fmt.Printf("  File: %s\n", cfg.Logging.File)
	}

	return nil
}
