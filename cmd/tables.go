package cmd

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/urfave/cli/v3"

	"github.com/vectable/vectable-go/internal/catalog"
	"github.com/vectable/vectable-go/internal/logging"
	"github.com/vectable/vectable-go/internal/remote"
	"github.com/vectable/vectable-go/internal/table"
)

func TablesCommand() *cli.Command {
	return &cli.Command{
		Name:        "tables",
		Usage:       "Manage table definitions in the local catalog",
		Description: `The catalog records each table's schema and per-column embedding configuration so batches can be augmented consistently on every write.`,
		Commands: []*cli.Command{
			tablesListCommand(),
			tablesSaveCommand(),
			tablesDeleteCommand(),
		},
	}
}

func tablesListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List table definitions stored in the catalog",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return runTablesList(ctx)
		},
	}
}

func tablesSaveCommand() *cli.Command {
	return &cli.Command{
		Name:        "save",
		Usage:       "Record a remote table's definition in the catalog",
		Description: `Fetch the table's schema from the remote service and store it locally. Use the embedding flags to tag a source column for augmentation.`,
		ArgsUsage:   " <table>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "embed-column",
				Usage: "Source column whose values feed the embedding function",
			},
			&cli.StringFlag{
				Name:  "embed-function",
				Usage: "Registered embedding function name",
			},
			&cli.StringFlag{
				Name:  "embed-dest",
				Usage: "Destination column for vectors (defaults to <source>_embedding)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
			}

			return runTablesSave(ctx, args.First(), saveOptions{
				embedColumn:   cmd.String("embed-column"),
				embedFunction: cmd.String("embed-function"),
				embedDest:     cmd.String("embed-dest"),
			})
		},
	}
}

func tablesDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove a table definition from the catalog",
		ArgsUsage: " <table>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
			}

			return runTablesDelete(ctx, args.First())
		},
	}
}

type saveOptions struct {
	embedColumn   string
	embedFunction string
	embedDest     string
}

func runTablesList(ctx context.Context) error {
	cfg, err := requireConfig(ctx)
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

	return RunTablesListWithCatalog(ctx, repo)
}

func RunTablesListWithCatalog(ctx context.Context, repo catalog.Repository) error {
	tables, err := repo.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if len(tables) == 0 {
		fmt.Println("No table definitions in the catalog.")
		return nil
	}

	for _, stored := range tables {
		line := fmt.Sprintf("%s (%d columns)", stored.Name, stored.Definition.Schema.NumFields())

		if def := stored.Definition.EmbeddingDefinition(); def != nil {
			line += fmt.Sprintf(", embeds %s -> %s via %s",
				def.SourceColumn, def.DestColumn(), def.EmbeddingName)
		}

		fmt.Println(line)
	}

	return nil
}

func runTablesSave(ctx context.Context, tableName string, opts saveOptions) error {
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

	return RunTablesSaveWithDeps(ctx, tbl, repo, opts)
}

func RunTablesSaveWithDeps(
	ctx context.Context,
	tbl remote.Table,
	repo catalog.Repository,
	opts saveOptions,
) error {
	if (opts.embedColumn == "") != (opts.embedFunction == "") {
		return fmt.Errorf("--embed-column and --embed-function must be given together")
	}

	var schema *arrow.Schema

	err := withSpinner("Fetching table schema...", func() error {
		return logging.LoggerMiddleware("fetch_schema", func() error {
			var err error
			schema, err = tbl.Schema(ctx)

			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to fetch schema: %w", err)
	}

	def := table.NewTableDefinition(schema)

	if opts.embedColumn != "" {
		embedDef := table.NewEmbeddingDefinition(opts.embedColumn, opts.embedFunction)
		if opts.embedDest != "" {
			embedDef.DestColumnName = opts.embedDest
		}

		def, err = def.WithEmbeddingColumn(embedDef)
		if err != nil {
			return err
		}
	}

	if err := repo.SaveTable(ctx, tbl.Name(), def); err != nil {
		return fmt.Errorf("failed to save table definition: %w", err)
	}

	fmt.Printf("Saved definition for table %q.\n", tbl.Name())

	return nil
}

func runTablesDelete(ctx context.Context, tableName string) error {
	cfg, err := requireConfig(ctx)
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

	return RunTablesDeleteWithCatalog(ctx, repo, tableName)
}

func RunTablesDeleteWithCatalog(ctx context.Context, repo catalog.Repository, tableName string) error {
	if err := repo.DeleteTable(ctx, tableName); err != nil {
		return fmt.Errorf("failed to delete table definition: %w", err)
	}

	fmt.Printf("Deleted definition for table %q.\n", tableName)

	return nil
}
