package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectable/vectable-go/internal/remote"
)

const describeBody = `{
	"table": "products",
	"version": 7,
	"schema": {
		"fields": [
			{"name": "id", "type": "int64", "nullable": false},
			{"name": "text", "type": "string", "nullable": true},
			{"name": "text_embedding", "type": "fixed_size_list<float32>[3]", "nullable": true}
		]
	},
	"stats": {"num_deleted_rows": 1, "num_fragments": 4}
}`

func newDescribeServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, describeBody)
	}))
	t.Cleanup(server.Close)

	return server
}

func remoteTestTable(t *testing.T, serverURL string) remote.Table {
	t.Helper()

	tbl, err := remote.NewTable(remote.Config{BaseURL: serverURL}, "products")
	require.NoError(t, err)

	return tbl
}

func TestRunDescribe(t *testing.T) {
	server := newDescribeServer(t)
	tbl := remoteTestTable(t, server.URL)

	output, err := captureOutput(t, func() error {
		return RunDescribeWithTable(context.Background(), tbl)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Table: products")
	assert.Contains(t, output, "Version: 7")
	assert.Contains(t, output, "Deleted Rows: 1")
	assert.Contains(t, output, "Fragments: 4")
	assert.Contains(t, output, "id: int64 (not null)")
	assert.Contains(t, output, "text: string (nullable)")
	assert.Contains(t, output, "text_embedding: fixed_size_list<float32>[3] (nullable)")
}

func TestRunDescribeServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "table not found")
	}))
	t.Cleanup(server.Close)

	tbl := remoteTestTable(t, server.URL)

	_, err := captureOutput(t, func() error {
		return RunDescribeWithTable(context.Background(), tbl)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table not found")
}
