package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/vectable/vectable-go/internal/config"
	"github.com/vectable/vectable-go/internal/errors"
	"github.com/vectable/vectable-go/internal/table"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
	defaultQueryTimeout    = 30 * time.Second
)

// DuckDBRepository implements the Repository interface using DuckDB
type DuckDBRepository struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// NewDuckDBRepository creates a new DuckDB catalog instance, with connection
// pool sizing and query timeout taken from the configuration. Zero or
// unparsable values fall back to defaults.
func NewDuckDBRepository(cfg config.DatabaseConfig) (*DuckDBRepository, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.ErrTypeValidation, "catalog database path is required")
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	maxOpen := cfg.MaxConnections
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(durationOr(cfg.ConnMaxLifetime, defaultConnMaxLifetime))
	db.SetConnMaxIdleTime(durationOr(cfg.ConnMaxIdleTime, defaultConnMaxIdleTime))

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	return &DuckDBRepository{
		db:           db,
		path:         cfg.Path,
		queryTimeout: durationOr(cfg.QueryTimeout, defaultQueryTimeout),
	}, nil
}

// durationOr parses a duration string, falling back when empty or invalid
func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}

	return d
}

// withQueryTimeout bounds a catalog operation by the configured query timeout
func (r *DuckDBRepository) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

// Initialize creates the catalog schema using migrations
func (r *DuckDBRepository) Initialize(ctx context.Context) error {
	return NewMigrationManager(r.db).MigrateUp(ctx)
}

// SaveTable stores or replaces a table definition under name
func (r *DuckDBRepository) SaveTable(ctx context.Context, name string, def table.TableDefinition) error {
	if name == "" {
		return errors.New(errors.ErrTypeValidation, "table name is required")
	}

	data, err := table.EncodeDefinition(def)
	if err != nil {
		return err
	}

	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to begin transaction")
	}

	defer func() { _ = tx.Rollback() }()

	var existing string

	err = tx.QueryRowContext(ctx, "SELECT id FROM tables WHERE name = ?", name).Scan(&existing)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"UPDATE tables SET definition = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			string(data), existing)
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to update table definition")
		}
	case stderrors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO tables (id, name, definition) VALUES (?, ?, ?)",
			uuid.New().String(), name, string(data))
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to insert table definition")
		}
	default:
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to look up table")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to commit")
	}

	return nil
}

// GetTable retrieves a stored table definition by name
func (r *DuckDBRepository) GetTable(ctx context.Context, name string) (*StoredTable, error) {
	query := "SELECT id, name, definition, created_at, updated_at FROM tables WHERE name = ?"

	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	var (
		stored  StoredTable
		defJSON string
	)

	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&stored.ID, &stored.Name, &defJSON, &stored.CreatedAt, &stored.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf(errors.ErrTypeNotFound, "table %q not found in catalog", name)
	}

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to query table")
	}

	def, err := table.DecodeDefinition([]byte(defJSON))
	if err != nil {
		return nil, err
	}

	stored.Definition = def

	return &stored, nil
}

// ListTables returns all stored table definitions ordered by name
func (r *DuckDBRepository) ListTables(ctx context.Context) ([]StoredTable, error) {
	query := "SELECT id, name, definition, created_at, updated_at FROM tables ORDER BY name"

	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to list tables")
	}

	defer rows.Close()

	var tables []StoredTable

	for rows.Next() {
		var (
			stored  StoredTable
			defJSON string
		)

		if err := rows.Scan(
			&stored.ID, &stored.Name, &defJSON, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan table row")
		}

		def, err := table.DecodeDefinition([]byte(defJSON))
		if err != nil {
			return nil, err
		}

		stored.Definition = def
		tables = append(tables, stored)
	}

	return tables, rows.Err()
}

// DeleteTable removes a stored table definition by name
func (r *DuckDBRepository) DeleteTable(ctx context.Context, name string) error {
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, "DELETE FROM tables WHERE name = ?", name)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to delete table")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to check delete result")
	}

	if affected == 0 {
		return errors.Newf(errors.ErrTypeNotFound, "table %q not found in catalog", name)
	}

	return nil
}

// Close closes the underlying database
func (r *DuckDBRepository) Close() error {
	return r.db.Close()
}

var _ Repository = (*DuckDBRepository)(nil)
