package cmd

import (
	"context"
	"os"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/vectable/vectable-go/internal/config"
	"github.com/vectable/vectable-go/internal/errors"
	"github.com/vectable/vectable-go/internal/logging"
)

type contextKey string

const configKey contextKey = "config"

var (
	loadedConfig *config.Config
	loadConfigMu sync.Mutex
)

// getConfigFromContext returns the configuration injected into the context
// (tests use this), falling back to loading it once from file and environment
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}

	loadConfigMu.Lock()
	defer loadConfigMu.Unlock()

	if loadedConfig != nil {
		return loadedConfig
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.SetupFallbackLogger()
		logging.ErrorWithErr("Failed to load configuration", err)

		return nil
	}

	cfg.ExpandAllPaths()

	if err := logging.InitializeLogger(cfg.Logging); err != nil {
		logging.SetupFallbackLogger()
	}

	loadedConfig = cfg

	return cfg
}

// requireConfig is getConfigFromContext for commands that cannot run without
// a configuration
func requireConfig(ctx context.Context) (*config.Config, error) {
	cfg := getConfigFromContext(ctx)
	if cfg == nil {
		return nil, errors.New(errors.ErrTypeConfig, "failed to load configuration")
	}

	return cfg, nil
}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// RootCommand assembles the vectable CLI
func RootCommand() *cli.Command {
	return &cli.Command{
		Name:  "vectable",
		Usage: "Manage remote vector tables and their embedding configuration",
		Description: `vectable is a client for a remote record-batch table service. It keeps
table definitions (schemas plus embedding column configuration) in a local
DuckDB catalog and augments record batches with embedding vectors on write.`,
		Commands: []*cli.Command{
			DescribeCommand(),
			CountCommand(),
			AddCommand(),
			TablesCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
	}
}

func Execute() error {
	return RootCommand().Run(context.Background(), os.Args)
}
