package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vectable/vectable-go/internal/logging"
	"github.com/vectable/vectable-go/internal/remote"
)

func CountCommand() *cli.Command {
	return &cli.Command{
		Name:        "count",
		Usage:       "Count rows in a remote table",
		Description: `Count the rows of a table on the remote service, optionally restricted to rows matching a filter predicate.`,
		ArgsUsage:   " <table>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "SQL predicate restricting which rows are counted",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
			}

			return runCount(ctx, args.First(), cmd.String("filter"))
		},
	}
}

func runCount(ctx context.Context, tableName, filter string) error {
	cfg, err := requireConfig(ctx)
	if err != nil {
		return err
	}

	tbl, err := openRemoteTable(cfg, tableName)
	if err != nil {
		return err
	}

	return RunCountWithTable(ctx, tbl, filter)
}

func RunCountWithTable(ctx context.Context, tbl remote.Table, filter string) error {
	var count int64

	err := withSpinner("Counting rows...", func() error {
		return logging.LoggerMiddleware("count_rows", func() error {
			var err error
			count, err = tbl.CountRows(ctx, filter)

			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}

	fmt.Println(count)

	return nil
}
