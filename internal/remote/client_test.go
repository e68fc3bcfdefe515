package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectable/vectable-go/internal/errors"
)

func describeResponse() string {
	return `{
		"table": "products",
		"version": 42,
		"schema": {
			"fields": [
				{"name": "id", "type": "int64", "nullable": false},
				{"name": "text", "type": "string", "nullable": false},
				{"name": "text_embedding", "type": "fixed_size_list<float32>[3]", "nullable": false}
			]
		},
		"stats": {"num_deleted_rows": 5, "num_fragments": 2}
	}`
}

func newTestTable(t *testing.T, serverURL string) Table {
	t.Helper()

	tbl, err := NewTable(Config{BaseURL: serverURL, APIKey: "secret"}, "products")
	require.NoError(t, err)

	return tbl
}

func TestDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/table/products/describe/", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("x-request-id"))

		_, _ = io.WriteString(w, describeResponse())
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	info, err := tbl.Describe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "products", info.Table)
	assert.Equal(t, uint64(42), info.Version)
	assert.Equal(t, 5, info.Stats.NumDeletedRows)
	assert.Equal(t, 2, info.Stats.NumFragments)
	require.Len(t, info.Schema.Fields, 3)
}

func TestVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, describeResponse())
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	version, err := tbl.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), version)
}

func TestSchemaDecodesArrowTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, describeResponse())
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	schema, err := tbl.Schema(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, schema.NumFields())
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, schema.Field(0).Type))
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, schema.Field(1).Type))
	assert.True(t, arrow.TypeEqual(
		arrow.FixedSizeListOf(3, arrow.PrimitiveTypes.Float32), schema.Field(2).Type))
}

func TestCountRows(t *testing.T) {
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/table/products/count_rows/", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get("Content-Type"))

		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, "1234")
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	count, err := tbl.CountRows(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), count)
	assert.JSONEq(t, `{"predicate": null}`, string(gotBody))

	count, err = tbl.CountRows(context.Background(), "price > 10")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), count)
	assert.JSONEq(t, `{"predicate": "price > 10"}`, string(gotBody))
}

func TestServiceErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "table is being compacted")
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	_, err := tbl.Describe(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeRemote))
	assert.Contains(t, err.Error(), "table is being compacted")
}

func sampleReader(t *testing.T) array.RecordReader {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int32},
		{Name: "text", Type: arrow.BinaryTypes.String},
	}, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	builder.Field(0).(*array.Int32Builder).AppendValues([]int32{1, 2}, nil)
	builder.Field(1).(*array.StringBuilder).AppendValues([]string{"socks", "shoes"}, nil)

	rec := builder.NewRecord()
	defer rec.Release()

	reader, err := array.NewRecordReader(schema, []arrow.Record{rec})
	require.NoError(t, err)

	return reader
}

func TestAddSendsIPCStream(t *testing.T) {
	var gotBody []byte
	var gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/table/products/insert/", r.URL.Path)

		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	reader := sampleReader(t)
	defer reader.Release()

	require.NoError(t, tbl.Add(context.Background(), reader))
	assert.Equal(t, contentTypeArrow, gotContentType)

	// The body is a decodable Arrow IPC stream
	ipcReader, err := ipc.NewReader(bytes.NewReader(gotBody))
	require.NoError(t, err)
	defer ipcReader.Release()

	require.True(t, ipcReader.Next())
	rec := ipcReader.Record()
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, "socks", rec.Column(1).(*array.String).Value(0))
	assert.False(t, ipcReader.Next())
}

func TestMergeInsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/table/products/merge_insert/", r.URL.Path)
		assert.Equal(t, "id", r.URL.Query().Get("on"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	reader := sampleReader(t)
	defer reader.Release()

	require.NoError(t, tbl.MergeInsert(context.Background(), "id", reader))

	require.Error(t, tbl.MergeInsert(context.Background(), "", reader))
}

func TestDelete(t *testing.T) {
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/table/products/delete/", r.URL.Path)

		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	require.NoError(t, tbl.Delete(context.Background(), "id = 1"))
	assert.JSONEq(t, `{"predicate": "id = 1"}`, string(gotBody))

	err := tbl.Delete(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestCreateIndex(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/table/products/create_index/", r.URL.Path)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tbl := newTestTable(t, server.URL)

	require.NoError(t, tbl.CreateIndex(context.Background(), "text_embedding", "ivf_pq"))
	assert.Equal(t, "text_embedding", gotBody["column"])
	assert.Equal(t, "ivf_pq", gotBody["index_type"])
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable(Config{}, "products")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

	_, err = NewTable(Config{BaseURL: "http://localhost"}, "")
	require.Error(t, err)
}
