package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vectable/vectable-go/internal/errors"
)

const defaultOpenAITimeout = 60 * time.Second

// OpenAIConfig configures an OpenAI-compatible embedding function
type OpenAIConfig struct {
	BaseURL    string `json:"base_url"`
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// OpenAIFunction is a Function that calls an OpenAI-compatible embeddings
// endpoint. It embeds string columns into fixed-size float32 vectors. No
// model runs in-process; this is transport only.
type OpenAIFunction struct {
	config     OpenAIConfig
	httpClient *http.Client
	destType   arrow.DataType
}

// NewOpenAIFunction creates an embedding function backed by the configured endpoint
func NewOpenAIFunction(config OpenAIConfig) (*OpenAIFunction, error) {
	if config.Model == "" {
		return nil, errors.New(errors.ErrTypeConfig, "embedding model is required")
	}

	if config.Dimensions <= 0 {
		return nil, errors.Newf(errors.ErrTypeConfig,
			"embedding dimensions must be positive: %d", config.Dimensions)
	}

	return &OpenAIFunction{
		config: config,
		httpClient: &http.Client{
			Timeout: defaultOpenAITimeout,
		},
		destType: arrow.FixedSizeListOf(int32(config.Dimensions), arrow.PrimitiveTypes.Float32),
	}, nil
}

// Name returns the registry name for this function
func (f *OpenAIFunction) Name() string {
	return "openai:" + f.config.Model
}

// SourceType returns the input column type
func (f *OpenAIFunction) SourceType() arrow.DataType {
	return arrow.BinaryTypes.String
}

// DestType returns the produced column type
func (f *OpenAIFunction) DestType() arrow.DataType {
	return f.destType
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Embed sends the non-null values of the source column to the embeddings
// endpoint and assembles a FixedSizeList<float32> column, preserving null
// slots in place.
func (f *OpenAIFunction) Embed(ctx context.Context, source arrow.Array) (arrow.Array, error) {
	strs, ok := source.(*array.String)
	if !ok {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"expected a string column, got %s", source.DataType())
	}

	inputs := make([]string, 0, strs.Len())

	for i := 0; i < strs.Len(); i++ {
		if strs.IsValid(i) {
			inputs = append(inputs, strs.Value(i))
		}
	}

	var vectors [][]float32

	if len(inputs) > 0 {
		var err error

		vectors, err = f.requestEmbeddings(ctx, inputs)
		if err != nil {
			return nil, err
		}
	}

	builder := array.NewFixedSizeListBuilder(
		memory.DefaultAllocator, int32(f.config.Dimensions), arrow.PrimitiveTypes.Float32)
	defer builder.Release()

	valueBuilder := builder.ValueBuilder().(*array.Float32Builder)
	next := 0

	for i := 0; i < strs.Len(); i++ {
		if !strs.IsValid(i) {
			builder.AppendNull()
			continue
		}

		vector := vectors[next]
		next++

		if len(vector) != f.config.Dimensions {
			return nil, errors.Newf(errors.ErrTypeEmbedding,
				"endpoint returned %d dimensions, expected %d",
				len(vector), f.config.Dimensions)
		}

		builder.Append(true)
		valueBuilder.AppendValues(vector, nil)
	}

	return builder.NewArray(), nil
}

// requestEmbeddings makes an HTTP request to the embeddings endpoint
func (f *OpenAIFunction) requestEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	reqBody := openAIEmbeddingRequest{
		Model: f.config.Model,
		Input: inputs,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, f.config.BaseURL+"/embeddings", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if f.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.config.APIKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "embedding request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response openAIEmbeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}

	if response.Error != nil {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding API error: %s", response.Error.Message)
	}

	if len(response.Data) != len(inputs) {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"endpoint returned %d embeddings for %d inputs",
			len(response.Data), len(inputs))
	}

	vectors := make([][]float32, len(inputs))
	for _, d := range response.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, errors.Newf(errors.ErrTypeEmbedding,
				"endpoint returned out-of-range index %d", d.Index)
		}

		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

var _ Function = (*OpenAIFunction)(nil)
