package embedding

import (
	"context"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/vectable/vectable-go/internal/errors"
	"github.com/vectable/vectable-go/internal/table"
)

// DeriveTableDefinition builds the augmented table definition for a batch
// source: the original fields in original order, the derived destination
// field appended last, and all original column definitions coerced to
// physical with a single trailing embedding entry. Appending keeps already
// issued field indices stable, and deriving twice from the same inputs
// yields identical results.
func DeriveTableDefinition(
	base *arrow.Schema,
	def table.EmbeddingDefinition,
	fn Function,
) (table.TableDefinition, error) {
	indices := base.FieldIndices(def.SourceColumn)
	if len(indices) == 0 {
		return table.TableDefinition{}, errors.NewValidationError(
			"source column not found in schema", def.SourceColumn)
	}

	src := base.Field(indices[0])
	if !arrow.TypeEqual(src.Type, fn.SourceType()) {
		return table.TableDefinition{}, errors.Newf(errors.ErrTypeValidation,
			"source column %q has type %s but function %q expects %s",
			def.SourceColumn, src.Type, fn.Name(), fn.SourceType())
	}

	fields := make([]arrow.Field, 0, base.NumFields()+1)
	fields = append(fields, base.Fields()...)
	fields = append(fields, arrow.Field{
		Name:     def.DestColumn(),
		Type:     fn.DestType(),
		Nullable: src.Nullable,
	})

	defs := make([]table.ColumnDefinition, 0, base.NumFields()+1)
	for range base.NumFields() {
		defs = append(defs, table.PhysicalColumn())
	}

	defs = append(defs, table.EmbeddingColumn(def))

	return table.TableDefinition{
		Schema:            arrow.NewSchema(fields, nil),
		ColumnDefinitions: defs,
	}, nil
}

// NewMaybeEmbedded wraps a record reader with embedding augmentation if the
// table definition declares an embedding column and a registry is supplied.
// Otherwise the inner reader is returned as-is and batches pass through
// untouched. The choice is made once here; the returned reader never
// re-checks it per pull.
//
// A declared embedding function missing from the registry, or a source
// column missing from the reader's schema, is a recoverable validation
// error.
func NewMaybeEmbedded(
	ctx context.Context,
	inner array.RecordReader,
	tableDef table.TableDefinition,
	registry Registry,
) (array.RecordReader, error) {
	if err := tableDef.Validate(); err != nil {
		return nil, err
	}

	if registry == nil {
		return inner, nil
	}

	def := tableDef.EmbeddingDefinition()
	if def == nil {
		return inner, nil
	}

	fn, ok := registry.Get(def.EmbeddingName)
	if !ok {
		return nil, errors.Newf(errors.ErrTypeValidation,
			"embedding function %q not found in registry", def.EmbeddingName)
	}

	return NewWithEmbeddings(ctx, inner, fn, *def)
}

// WithEmbeddings is a record reader that applies an embedding function to
// each batch pulled from the wrapped reader, appending the computed column.
// Batches are yielded in pull order; each batch is transformed fully before
// the next is requested and no buffering happens across batch boundaries.
type WithEmbeddings struct {
	refs  int64
	ctx   context.Context
	inner array.RecordReader
	fn    Function
	def   table.EmbeddingDefinition

	augmented table.TableDefinition
	cur       arrow.Record
	err       error
}

// NewWithEmbeddings creates a reader that unconditionally applies fn per the
// definition. Most callers want NewMaybeEmbedded instead.
func NewWithEmbeddings(
	ctx context.Context,
	inner array.RecordReader,
	fn Function,
	def table.EmbeddingDefinition,
) (*WithEmbeddings, error) {
	augmented, err := DeriveTableDefinition(inner.Schema(), def, fn)
	if err != nil {
		return nil, err
	}

	return &WithEmbeddings{
		refs:      1,
		ctx:       ctx,
		inner:     inner,
		fn:        fn,
		def:       def,
		augmented: augmented,
	}, nil
}

// TableDefinition returns the augmented table definition, computed once at
// construction and independent of per-batch content
func (w *WithEmbeddings) TableDefinition() table.TableDefinition {
	return w.augmented
}

// Schema returns the fixed augmented schema; every yielded batch conforms to it
func (w *WithEmbeddings) Schema() *arrow.Schema {
	return w.augmented.Schema
}

// Next advances to the next batch, computing the embedding column inline on
// the pulling goroutine. Upstream errors are propagated unchanged without
// attempting a transform.
func (w *WithEmbeddings) Next() bool {
	if w.err != nil {
		return false
	}

	if w.cur != nil {
		w.cur.Release()
		w.cur = nil
	}

	if !w.inner.Next() {
		w.err = w.inner.Err()
		return false
	}

	rec, err := w.augment(w.inner.Record())
	if err != nil {
		w.err = err
		return false
	}

	w.cur = rec

	return true
}

// augment appends the computed embedding column to the batch
func (w *WithEmbeddings) augment(rec arrow.Record) (arrow.Record, error) {
	indices := rec.Schema().FieldIndices(w.def.SourceColumn)
	if len(indices) == 0 {
		return nil, errors.NewValidationError(
			"source column not found in batch", w.def.SourceColumn)
	}

	embedded, err := w.fn.Embed(w.ctx, rec.Column(indices[0]))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeEmbedding,
			"embedding function %q failed", w.fn.Name())
	}
	defer embedded.Release()

	if int64(embedded.Len()) != rec.NumRows() {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding function %q returned %d values for %d rows",
			w.fn.Name(), embedded.Len(), rec.NumRows())
	}

	if !arrow.TypeEqual(embedded.DataType(), w.fn.DestType()) {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding function %q returned type %s, declared %s",
			w.fn.Name(), embedded.DataType(), w.fn.DestType())
	}

	cols := make([]arrow.Array, 0, rec.NumCols()+1)
	cols = append(cols, rec.Columns()...)
	cols = append(cols, embedded)

	return array.NewRecord(w.augmented.Schema, cols, rec.NumRows()), nil
}

// RecordBatch returns the current augmented batch
func (w *WithEmbeddings) RecordBatch() arrow.RecordBatch {
	return w.cur
}

// Record returns the current augmented batch.
//
// Deprecated: use RecordBatch.
func (w *WithEmbeddings) Record() arrow.Record {
	return w.cur
}

// Err returns the first error encountered, either propagated from the
// wrapped reader or produced by the transform
func (w *WithEmbeddings) Err() error {
	return w.err
}

// Retain increases the reference count
func (w *WithEmbeddings) Retain() {
	atomic.AddInt64(&w.refs, 1)
}

// Release decreases the reference count, releasing the wrapped reader and
// any held batch when it reaches zero
func (w *WithEmbeddings) Release() {
	if atomic.AddInt64(&w.refs, -1) == 0 {
		if w.cur != nil {
			w.cur.Release()
			w.cur = nil
		}

		w.inner.Release()
	}
}

var _ array.RecordReader = (*WithEmbeddings)(nil)
