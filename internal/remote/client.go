package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/google/uuid"

	"github.com/vectable/vectable-go/internal/errors"
	"github.com/vectable/vectable-go/internal/table"
)

const (
	defaultTimeout = 30 * time.Second

	contentTypeJSON  = "application/json"
	contentTypeArrow = "application/vnd.apache.arrow.stream"
)

// Table defines the interface for operations against a single remote table.
// The service is treated as opaque: the client ships batches and JSON
// requests and surfaces non-success responses as remote errors carrying the
// response body. No retry is performed here; retry policy belongs to the
// caller.
type Table interface {
	// Name returns the table name
	Name() string

	// Describe fetches the table's metadata: schema, version, and stats
	Describe(ctx context.Context) (*TableInfo, error)

	// Schema fetches the table's Arrow schema
	Schema(ctx context.Context) (*arrow.Schema, error)

	// Version fetches the table's current version number
	Version(ctx context.Context) (uint64, error)

	// CountRows counts rows matching the predicate; an empty predicate
	// counts all rows
	CountRows(ctx context.Context, predicate string) (int64, error)

	// Add appends all batches from the reader to the table
	Add(ctx context.Context, data array.RecordReader) error

	// MergeInsert upserts all batches from the reader, matching on the
	// given key column
	MergeInsert(ctx context.Context, on string, data array.RecordReader) error

	// Delete removes rows matching the predicate
	Delete(ctx context.Context, predicate string) error

	// CreateIndex asks the service to build an index on the given column
	CreateIndex(ctx context.Context, column, indexType string) error
}

// Config represents the remote table service connection
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// TableInfo is the service's describe response
type TableInfo struct {
	Table   string     `json:"table"`
	Version uint64     `json:"version"`
	Schema  SchemaJSON `json:"schema"`
	Stats   TableStats `json:"stats"`
}

// SchemaJSON is the wire form of a table schema
type SchemaJSON struct {
	Fields []table.FieldJSON `json:"fields"`
}

// TableStats is the storage-level statistics in a describe response
type TableStats struct {
	NumDeletedRows int `json:"num_deleted_rows"`
	NumFragments   int `json:"num_fragments"`
}

// tableImpl implements the Table interface over HTTP
type tableImpl struct {
	config     Config
	name       string
	httpClient *http.Client
}

// NewTable creates a client for a single remote table
func NewTable(config Config, name string) (Table, error) {
	if config.BaseURL == "" {
		return nil, errors.New(errors.ErrTypeConfig, "remote base URL is required")
	}

	if name == "" {
		return nil, errors.New(errors.ErrTypeValidation, "table name is required")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &tableImpl{
		config: config,
		name:   name,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (t *tableImpl) Name() string {
	return t.name
}

func (t *tableImpl) Describe(ctx context.Context) (*TableInfo, error) {
	body, err := t.post(ctx, t.tablePath("describe"), "", nil)
	if err != nil {
		return nil, err
	}

	var info TableInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeRemote, "failed to parse describe response")
	}

	return &info, nil
}

func (t *tableImpl) Schema(ctx context.Context) (*arrow.Schema, error) {
	info, err := t.Describe(ctx)
	if err != nil {
		return nil, err
	}

	schema, err := table.FieldsToSchema(info.Schema.Fields)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeRemote, "service returned an unusable schema")
	}

	return schema, nil
}

func (t *tableImpl) Version(ctx context.Context) (uint64, error) {
	info, err := t.Describe(ctx)
	if err != nil {
		return 0, err
	}

	return info.Version, nil
}

type countRowsRequest struct {
	Predicate *string `json:"predicate"`
}

func (t *tableImpl) CountRows(ctx context.Context, predicate string) (int64, error) {
	req := countRowsRequest{}
	if predicate != "" {
		req.Predicate = &predicate
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := t.post(ctx, t.tablePath("count_rows"), contentTypeJSON, jsonBody)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := json.Unmarshal(body, &count); err != nil {
		return 0, errors.Wrap(err, errors.ErrTypeRemote, "failed to parse count_rows response")
	}

	return count, nil
}

func (t *tableImpl) Add(ctx context.Context, data array.RecordReader) error {
	payload, err := BatchesToIPC(data)
	if err != nil {
		return err
	}

	_, err = t.post(ctx, t.tablePath("insert"), contentTypeArrow, payload)

	return err
}

func (t *tableImpl) MergeInsert(ctx context.Context, on string, data array.RecordReader) error {
	if on == "" {
		return errors.New(errors.ErrTypeValidation, "merge key column is required")
	}

	payload, err := BatchesToIPC(data)
	if err != nil {
		return err
	}

	path := t.tablePath("merge_insert") + "?on=" + url.QueryEscape(on)
	_, err = t.post(ctx, path, contentTypeArrow, payload)

	return err
}

type deleteRequest struct {
	Predicate string `json:"predicate"`
}

func (t *tableImpl) Delete(ctx context.Context, predicate string) error {
	if predicate == "" {
		return errors.New(errors.ErrTypeValidation, "delete predicate is required")
	}

	jsonBody, err := json.Marshal(deleteRequest{Predicate: predicate})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = t.post(ctx, t.tablePath("delete"), contentTypeJSON, jsonBody)

	return err
}

type createIndexRequest struct {
	Column    string `json:"column"`
	IndexType string `json:"index_type"`
}

func (t *tableImpl) CreateIndex(ctx context.Context, column, indexType string) error {
	if column == "" {
		return errors.New(errors.ErrTypeValidation, "index column is required")
	}

	jsonBody, err := json.Marshal(createIndexRequest{Column: column, IndexType: indexType})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = t.post(ctx, t.tablePath("create_index"), contentTypeJSON, jsonBody)

	return err
}

func (t *tableImpl) tablePath(op string) string {
	return fmt.Sprintf("/v1/table/%s/%s/", url.PathEscape(t.name), op)
}

// post sends a request and returns the response body, converting non-success
// responses into remote errors whose message is the body
func (t *tableImpl) post(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if t.config.APIKey != "" {
		req.Header.Set("x-api-key", t.config.APIKey)
	}

	req.Header.Set("x-request-id", uuid.New().String())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeRemote, "request to table service failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeRemote, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.ErrTypeRemote, string(respBody))
	}

	return respBody, nil
}
