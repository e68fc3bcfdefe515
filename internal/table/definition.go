package table

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/vectable/vectable-go/internal/errors"
)

// EmbeddingDefinition declares that one column of a table is derived from
// another by a named embedding function. It is persisted as part of the
// table's column metadata so the write path can re-resolve the function
// without the caller re-specifying it.
type EmbeddingDefinition struct {
	// SourceColumn is the name of the column in the input data
	SourceColumn string `json:"source_column"`
	// DestColumnName is the name of the embedding column; if empty, the
	// source column with "_embedding" appended is used
	DestColumnName string `json:"dest_column,omitempty"`
	// EmbeddingName is the name of the embedding function to apply
	EmbeddingName string `json:"embedding_name"`
}

// NewEmbeddingDefinition creates a definition with the default destination column
func NewEmbeddingDefinition(sourceColumn, embeddingName string) EmbeddingDefinition {
	return EmbeddingDefinition{
		SourceColumn:  sourceColumn,
		EmbeddingName: embeddingName,
	}
}

// DestColumn returns the destination column name, defaulting to
// source column + "_embedding" when unset
func (d EmbeddingDefinition) DestColumn() string {
	if d.DestColumnName != "" {
		return d.DestColumnName
	}

	return d.SourceColumn + "_embedding"
}

// ColumnKind tags a column as physical or derived
type ColumnKind int

const (
	// ColumnKindPhysical is a column whose values are supplied by the writer
	ColumnKindPhysical ColumnKind = iota
	// ColumnKindEmbedding is a column whose values are produced by an embedding function
	ColumnKindEmbedding
)

// String returns the string representation of the column kind
func (k ColumnKind) String() string {
	switch k {
	case ColumnKindPhysical:
		return "physical"
	case ColumnKindEmbedding:
		return "embedding"
	default:
		return "unknown"
	}
}

// ColumnDefinition is the per-column metadata paired with a schema field.
// Embedding is set exactly when Kind is ColumnKindEmbedding.
type ColumnDefinition struct {
	Kind      ColumnKind
	Embedding *EmbeddingDefinition
}

// PhysicalColumn returns a plain physical column definition
func PhysicalColumn() ColumnDefinition {
	return ColumnDefinition{Kind: ColumnKindPhysical}
}

// EmbeddingColumn returns a column definition carrying an embedding definition
func EmbeddingColumn(def EmbeddingDefinition) ColumnDefinition {
	return ColumnDefinition{Kind: ColumnKindEmbedding, Embedding: &def}
}

// TableDefinition is a schema paired with per-column metadata distinguishing
// physical columns from derived embedding columns. Values are never mutated
// in place; augmentation produces a new definition.
type TableDefinition struct {
	Schema            *arrow.Schema
	ColumnDefinitions []ColumnDefinition
}

// NewTableDefinition creates a table definition where every schema field is
// a plain physical column
func NewTableDefinition(schema *arrow.Schema) TableDefinition {
	defs := make([]ColumnDefinition, schema.NumFields())
	for i := range defs {
		defs[i] = PhysicalColumn()
	}

	return TableDefinition{
		Schema:            schema,
		ColumnDefinitions: defs,
	}
}

// WithEmbeddingColumn tags the named source column's definition slot with an
// embedding definition. The schema itself is unchanged; the derived column is
// appended later by the augmentation decorator.
func (t TableDefinition) WithEmbeddingColumn(def EmbeddingDefinition) (TableDefinition, error) {
	indices := t.Schema.FieldIndices(def.SourceColumn)
	if len(indices) == 0 {
		return TableDefinition{}, errors.NewValidationError(
			"source column not found in schema", def.SourceColumn)
	}

	defs := make([]ColumnDefinition, len(t.ColumnDefinitions))
	copy(defs, t.ColumnDefinitions)
	defs[indices[0]] = EmbeddingColumn(def)

	return TableDefinition{Schema: t.Schema, ColumnDefinitions: defs}, nil
}

// EmbeddingDefinition returns the first declared embedding definition, or nil
// when the table has none
func (t TableDefinition) EmbeddingDefinition() *EmbeddingDefinition {
	for _, cd := range t.ColumnDefinitions {
		if cd.Kind == ColumnKindEmbedding {
			return cd.Embedding
		}
	}

	return nil
}

// Validate checks the structural invariants of the definition: column
// definitions and schema fields are aligned one-to-one, embedding tags carry
// a definition, and at most one embedding column is declared
func (t TableDefinition) Validate() error {
	if t.Schema == nil {
		return errors.New(errors.ErrTypeValidation, "table definition has no schema")
	}

	if len(t.ColumnDefinitions) != t.Schema.NumFields() {
		return errors.Newf(errors.ErrTypeValidation,
			"column definitions (%d) do not match schema fields (%d)",
			len(t.ColumnDefinitions), t.Schema.NumFields())
	}

	embeddings := 0

	for i, cd := range t.ColumnDefinitions {
		switch cd.Kind {
		case ColumnKindPhysical:
			if cd.Embedding != nil {
				return errors.Newf(errors.ErrTypeValidation,
					"physical column %q carries an embedding definition",
					t.Schema.Field(i).Name)
			}
		case ColumnKindEmbedding:
			if cd.Embedding == nil {
				return errors.Newf(errors.ErrTypeValidation,
					"embedding column %q has no embedding definition",
					t.Schema.Field(i).Name)
			}

			embeddings++
		default:
			return errors.Newf(errors.ErrTypeValidation,
				"unknown column kind %d", cd.Kind)
		}
	}

	if embeddings > 1 {
		return errors.Newf(errors.ErrTypeValidation,
			"at most one embedding column is supported, found %d", embeddings)
	}

	return nil
}
