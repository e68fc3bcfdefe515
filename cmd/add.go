package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/urfave/cli/v3"

	"github.com/vectable/vectable-go/internal/embedding"
	"github.com/vectable/vectable-go/internal/logging"
	"github.com/vectable/vectable-go/internal/remote"
	"github.com/vectable/vectable-go/internal/table"
)

func AddCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Write record batches from an Arrow IPC file to a remote table",
		Description: `Read an Arrow IPC stream, augment each batch with the embedding column declared in the catalog, and append the result to the remote table. With --merge-on the batches are upserted instead, matched on the given key column.`,
		ArgsUsage:   " <table> <file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "merge-on",
				Usage: "Upsert instead of append, matching on this key column",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 2 {
				return fmt.Errorf("expected exactly 2 arguments, got %d", args.Len())
			}

			return runAdd(ctx, args.First(), args.Get(1), cmd.String("merge-on"))
		},
	}
}

func runAdd(ctx context.Context, tableName, path, mergeOn string) error {
	cfg, err := requireConfig(ctx)
	if err != nil {
		return err
	}

	tbl, err := openRemoteTable(cfg, tableName)
	if err != nil {
		return err
	}

	repo, err := initializeCatalog(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize catalog: %w", err)
	}

	stored, err := repo.GetTable(ctx, tableName)
	if err != nil {
		return fmt.Errorf("failed to load table definition: %w", err)
	}

	registry, err := initializeRegistry(cfg)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	ipcReader, err := ipc.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to read Arrow IPC stream: %w", err)
	}
	defer ipcReader.Release()

	return RunAddWithDeps(ctx, tbl, stored.Definition, registry, ipcReader, mergeOn)
}

func RunAddWithDeps(
	ctx context.Context,
	tbl remote.Table,
	def table.TableDefinition,
	registry embedding.Registry,
	data array.RecordReader,
	mergeOn string,
) error {
	reader, err := embedding.NewMaybeEmbedded(ctx, data, def, registry)
	if err != nil {
		return err
	}

	err = withSpinner("Writing batches...", func() error {
		return logging.LoggerMiddleware("add", func() error {
			if mergeOn != "" {
				return tbl.MergeInsert(ctx, mergeOn, reader)
			}

			return tbl.Add(ctx, reader)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to write batches: %w", err)
	}

	fmt.Printf("Wrote batches to table %q.\n", tbl.Name())

	return nil
}
