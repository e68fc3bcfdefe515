package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vectable/vectable-go/internal/logging"
	"github.com/vectable/vectable-go/internal/remote"
)

func DescribeCommand() *cli.Command {
	return &cli.Command{
		Name:        "describe",
		Usage:       "Display schema, version, and stats for a remote table",
		Description: `Fetch and display metadata for a table on the remote service.`,
		ArgsUsage:   " <table>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
			}

			return runDescribe(ctx, args.First())
		},
	}
}

func runDescribe(ctx context.Context, tableName string) error {
	cfg, err := requireConfig(ctx)
	if err != nil {
		return err
	}

	tbl, err := openRemoteTable(cfg, tableName)
	if err != nil {
		return err
	}

	return RunDescribeWithTable(ctx, tbl)
}

func RunDescribeWithTable(ctx context.Context, tbl remote.Table) error {
	var info *remote.TableInfo

	err := withSpinner("Fetching table metadata...", func() error {
		return logging.LoggerMiddleware("describe", func() error {
			var err error
			info, err = tbl.Describe(ctx)

			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to describe table: %w", err)
	}

	fmt.Printf("Table: %s\n", info.Table)
	fmt.Printf("Version: %d\n", info.Version)
	fmt.Printf("Deleted Rows: %d\n", info.Stats.NumDeletedRows)
	fmt.Printf("Fragments: %d\n", info.Stats.NumFragments)

	fmt.Println("\nSchema:")

	for _, field := range info.Schema.Fields {
		nullable := "not null"
		if field.Nullable {
			nullable = "nullable"
		}

		fmt.Printf("  %s: %s (%s)\n", field.Name, field.Type, nullable)
	}

	return nil
}
