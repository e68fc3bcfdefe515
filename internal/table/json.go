package table

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/vectable/vectable-go/internal/errors"
)

// FieldJSON is the wire/persistence form of a schema field
type FieldJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// columnDefJSON is the persistence form of a column definition
type columnDefJSON struct {
	Kind      string               `json:"kind"`
	Embedding *EmbeddingDefinition `json:"embedding,omitempty"`
}

// definitionJSON is the persistence form of a table definition
type definitionJSON struct {
	Fields            []FieldJSON     `json:"fields"`
	ColumnDefinitions []columnDefJSON `json:"column_definitions"`
}

// EncodeDefinition serializes a table definition to its JSON persistence form
func EncodeDefinition(def TableDefinition) ([]byte, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	doc := definitionJSON{
		Fields:            make([]FieldJSON, 0, def.Schema.NumFields()),
		ColumnDefinitions: make([]columnDefJSON, 0, len(def.ColumnDefinitions)),
	}

	for _, f := range def.Schema.Fields() {
		typeStr, err := FormatDataType(f.Type)
		if err != nil {
			return nil, err
		}

		doc.Fields = append(doc.Fields, FieldJSON{
			Name:     f.Name,
			Type:     typeStr,
			Nullable: f.Nullable,
		})
	}

	for _, cd := range def.ColumnDefinitions {
		doc.ColumnDefinitions = append(doc.ColumnDefinitions, columnDefJSON{
			Kind:      cd.Kind.String(),
			Embedding: cd.Embedding,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal table definition")
	}

	return data, nil
}

// DecodeDefinition deserializes a table definition from its JSON persistence form
func DecodeDefinition(data []byte) (TableDefinition, error) {
	var doc definitionJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return TableDefinition{}, errors.Wrap(err, errors.ErrTypeValidation,
			"failed to parse table definition")
	}

	fields := make([]arrow.Field, 0, len(doc.Fields))

	for _, f := range doc.Fields {
		dt, err := ParseDataType(f.Type)
		if err != nil {
			return TableDefinition{}, err
		}

		fields = append(fields, arrow.Field{
			Name:     f.Name,
			Type:     dt,
			Nullable: f.Nullable,
		})
	}

	defs := make([]ColumnDefinition, 0, len(doc.ColumnDefinitions))

	for _, cd := range doc.ColumnDefinitions {
		switch cd.Kind {
		case "physical":
			defs = append(defs, PhysicalColumn())
		case "embedding":
			if cd.Embedding == nil {
				return TableDefinition{}, errors.New(errors.ErrTypeValidation,
					"embedding column definition has no embedding")
			}

			defs = append(defs, EmbeddingColumn(*cd.Embedding))
		default:
			return TableDefinition{}, errors.Newf(errors.ErrTypeValidation,
				"unknown column kind %q", cd.Kind)
		}
	}

	def := TableDefinition{
		Schema:            arrow.NewSchema(fields, nil),
		ColumnDefinitions: defs,
	}

	if err := def.Validate(); err != nil {
		return TableDefinition{}, err
	}

	return def, nil
}

// SchemaToFields converts an Arrow schema to its wire field list
func SchemaToFields(schema *arrow.Schema) ([]FieldJSON, error) {
	fields := make([]FieldJSON, 0, schema.NumFields())

	for _, f := range schema.Fields() {
		typeStr, err := FormatDataType(f.Type)
		if err != nil {
			return nil, err
		}

		fields = append(fields, FieldJSON{Name: f.Name, Type: typeStr, Nullable: f.Nullable})
	}

	return fields, nil
}

// FieldsToSchema converts a wire field list back to an Arrow schema
func FieldsToSchema(fields []FieldJSON) (*arrow.Schema, error) {
	arrowFields := make([]arrow.Field, 0, len(fields))

	for _, f := range fields {
		dt, err := ParseDataType(f.Type)
		if err != nil {
			return nil, err
		}

		arrowFields = append(arrowFields, arrow.Field{
			Name:     f.Name,
			Type:     dt,
			Nullable: f.Nullable,
		})
	}

	return arrow.NewSchema(arrowFields, nil), nil
}

// FormatDataType renders the subset of Arrow types the service understands
// as a type string
func FormatDataType(dt arrow.DataType) (string, error) {
	switch t := dt.(type) {
	case *arrow.BooleanType:
		return "bool", nil
	case *arrow.Int32Type:
		return "int32", nil
	case *arrow.Int64Type:
		return "int64", nil
	case *arrow.Float32Type:
		return "float32", nil
	case *arrow.Float64Type:
		return "float64", nil
	case *arrow.StringType:
		return "string", nil
	case *arrow.BinaryType:
		return "binary", nil
	case *arrow.FixedSizeListType:
		elem, err := FormatDataType(t.Elem())
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("fixed_size_list<%s>[%d]", elem, t.Len()), nil
	default:
		return "", errors.Newf(errors.ErrTypeValidation,
			"unsupported data type: %s", dt)
	}
}

// ParseDataType is the inverse of FormatDataType
func ParseDataType(s string) (arrow.DataType, error) {
	switch s {
	case "bool":
		return arrow.FixedWidthTypes.Boolean, nil
	case "int32":
		return arrow.PrimitiveTypes.Int32, nil
	case "int64":
		return arrow.PrimitiveTypes.Int64, nil
	case "float32":
		return arrow.PrimitiveTypes.Float32, nil
	case "float64":
		return arrow.PrimitiveTypes.Float64, nil
	case "string":
		return arrow.BinaryTypes.String, nil
	case "binary":
		return arrow.BinaryTypes.Binary, nil
	}

	if strings.HasPrefix(s, "fixed_size_list<") {
		elemEnd := strings.LastIndex(s, ">")
		lenStart := strings.LastIndex(s, "[")

		if elemEnd == -1 || lenStart == -1 || !strings.HasSuffix(s, "]") || lenStart < elemEnd {
			return nil, errors.Newf(errors.ErrTypeValidation,
				"malformed fixed_size_list type: %q", s)
		}

		elem, err := ParseDataType(s[len("fixed_size_list<"):elemEnd])
		if err != nil {
			return nil, err
		}

		n, err := strconv.Atoi(s[lenStart+1 : len(s)-1])
		if err != nil || n <= 0 {
			return nil, errors.Newf(errors.ErrTypeValidation,
				"invalid fixed_size_list length in %q", s)
		}

		return arrow.FixedSizeListOf(int32(n), elem), nil
	}

	return nil, errors.Newf(errors.ErrTypeValidation, "unsupported data type: %q", s)
}
