package embedding

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// Function defines the interface for embedding functions.
//
// An embedding function is applied to a column of input data to produce an
// "embedding" of that input, stored alongside the original column. An
// embedding is often a lower-dimensional representation of the input, for
// example a sentence embedded into a 768-dimensional vector space for
// similarity search.
//
// To use an embedding function it must first be registered with a Registry,
// then referenced by name from an embedding column in a table definition.
// The write path resolves the name and applies the function batch by batch.
type Function interface {
	// Name returns the function name used for registry lookups
	Name() string

	// SourceType returns the Arrow type of the input column
	SourceType() arrow.DataType

	// DestType returns the Arrow type of the produced column.
	// Embed must return arrays of exactly this type.
	DestType() arrow.DataType

	// Embed computes the embedding of the source column. The returned array
	// must have the same length as the input and element type DestType.
	// Implementations must be safe for concurrent use; a single function
	// instance is shared across any number of decorators.
	Embed(ctx context.Context, source arrow.Array) (arrow.Array, error)
}
