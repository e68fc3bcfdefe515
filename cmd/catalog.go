package cmd

import (
	"fmt"
	"time"

	"github.com/vectable/vectable-go/internal/catalog"
	"github.com/vectable/vectable-go/internal/config"
	"github.com/vectable/vectable-go/internal/logging"
	"github.com/vectable/vectable-go/internal/remote"
)

// initializeCatalog creates and initializes the local table-definition catalog
func initializeCatalog(cfg *config.Config) (catalog.Repository, error) {
	dbCfg := cfg.Database
	dbCfg.Path = config.ExpandPath(dbCfg.Path)

	logging.Debugf("Opening catalog database at %s", dbCfg.Path)

	repo, err := catalog.NewDuckDBRepository(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}

	return repo, nil
}

// openRemoteTable creates a client for a single table on the configured service
func openRemoteTable(cfg *config.Config, name string) (remote.Table, error) {
	timeout, err := time.ParseDuration(cfg.Remote.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid remote timeout: %w", err)
	}

	return remote.NewTable(remote.Config{
		BaseURL: cfg.Remote.BaseURL,
		APIKey:  cfg.Remote.APIKey,
		Timeout: timeout,
	}, name)
}
