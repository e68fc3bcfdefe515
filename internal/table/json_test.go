package table

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeDefinitionRoundTrip(t *testing.T) {
	def := NewTableDefinition(sampleSchema())
	def, err := def.WithEmbeddingColumn(NewEmbeddingDefinition("text", "upper"))
	require.NoError(t, err)

	data, err := EncodeDefinition(def)
	require.NoError(t, err)

	decoded, err := DecodeDefinition(data)
	require.NoError(t, err)

	assert.True(t, def.Schema.Equal(decoded.Schema),
		"expected %s, got %s", def.Schema, decoded.Schema)
	require.Len(t, decoded.ColumnDefinitions, 3)
	assert.Equal(t, ColumnKindEmbedding, decoded.ColumnDefinitions[1].Kind)
	assert.Equal(t, "upper", decoded.ColumnDefinitions[1].Embedding.EmbeddingName)
	assert.Equal(t, "text_embedding", decoded.ColumnDefinitions[1].Embedding.DestColumn())
}

func TestEncodeDefinitionSerializedFieldNames(t *testing.T) {
	def := NewTableDefinition(arrow.NewSchema([]arrow.Field{
		{Name: "text", Type: arrow.BinaryTypes.String},
	}, nil))
	def, err := def.WithEmbeddingColumn(EmbeddingDefinition{
		SourceColumn:   "text",
		DestColumnName: "vec",
		EmbeddingName:  "minilm",
	})
	require.NoError(t, err)

	data, err := EncodeDefinition(def)
	require.NoError(t, err)

	// The embedding definition must use the stable wire field names
	assert.Contains(t, string(data), `"source_column":"text"`)
	assert.Contains(t, string(data), `"dest_column":"vec"`)
	assert.Contains(t, string(data), `"embedding_name":"minilm"`)
}

func TestDecodeDefinitionRejectsGarbage(t *testing.T) {
	_, err := DecodeDefinition([]byte("{oops"))
	require.Error(t, err)

	_, err = DecodeDefinition([]byte(`{"fields":[{"name":"a","type":"string"}],"column_definitions":[{"kind":"derived"}]}`))
	require.Error(t, err)
}

func TestDataTypeRoundTrip(t *testing.T) {
	types := []arrow.DataType{
		arrow.FixedWidthTypes.Boolean,
		arrow.PrimitiveTypes.Int32,
		arrow.PrimitiveTypes.Int64,
		arrow.PrimitiveTypes.Float32,
		arrow.PrimitiveTypes.Float64,
		arrow.BinaryTypes.String,
		arrow.BinaryTypes.Binary,
		arrow.FixedSizeListOf(384, arrow.PrimitiveTypes.Float32),
	}

	for _, dt := range types {
		s, err := FormatDataType(dt)
		require.NoError(t, err)

		parsed, err := ParseDataType(s)
		require.NoError(t, err, "parsing %q", s)
		assert.True(t, arrow.TypeEqual(dt, parsed), "round trip of %s", dt)
	}
}

func TestParseDataTypeErrors(t *testing.T) {
	for _, s := range []string{
		"decimal128",
		"fixed_size_list<string>",
		"fixed_size_list<string>[0]",
		"fixed_size_list<wat>[4]",
	} {
		_, err := ParseDataType(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}

func TestFormatDataTypeUnsupported(t *testing.T) {
	_, err := FormatDataType(arrow.ListOf(arrow.PrimitiveTypes.Float32))
	require.Error(t, err)
}
