package cmd

import (
	"github.com/vectable/vectable-go/internal/config"
	"github.com/vectable/vectable-go/internal/embedding"
	"github.com/vectable/vectable-go/internal/errors"
	"github.com/vectable/vectable-go/internal/logging"
)

// initializeRegistry builds the embedding function registry from the
// configuration. It returns nil when embedding is disabled, which makes the
// write path pass batches through untouched.
func initializeRegistry(cfg *config.Config) (embedding.Registry, error) {
	if !cfg.Embedding.Enabled {
		return nil, nil
	}

	if cfg.Embedding.Provider != "openai" {
		return nil, errors.Newf(errors.ErrTypeConfig,
			"unsupported embedding provider: %s", cfg.Embedding.Provider)
	}

	fn, err := embedding.NewOpenAIFunction(embedding.OpenAIConfig{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	registry := embedding.NewMemoryRegistry()
	if err := registry.Register(fn.Name(), fn); err != nil {
		return nil, err
	}

	logging.Debugf("Registered embedding function %s", fn.Name())

	return registry, nil
}
