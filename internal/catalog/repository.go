package catalog

import (
	"context"
	"time"

	"github.com/vectable/vectable-go/internal/table"
)

// Repository defines the interface for the local table-definition catalog.
// It persists each table's schema and per-column metadata, including
// embedding definitions, so a table can be reopened without re-specifying
// its embedding configuration at write time.
type Repository interface {
	Initialize(ctx context.Context) error
	SaveTable(ctx context.Context, name string, def table.TableDefinition) error
	GetTable(ctx context.Context, name string) (*StoredTable, error)
	ListTables(ctx context.Context) ([]StoredTable, error)
	DeleteTable(ctx context.Context, name string) error
	Close() error
}

// StoredTable represents a table definition as stored in the catalog
type StoredTable struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Definition table.TableDefinition `json:"-"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}
