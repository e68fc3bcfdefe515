package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectable/vectable-go/internal/config"
)

func TestGetConfigFromContextPrefersInjected(t *testing.T) {
	cfg := &config.Config{
		Remote: config.RemoteConfig{BaseURL: "http://injected"},
	}

	ctx := withConfig(context.Background(), cfg)

	got := getConfigFromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "http://injected", got.Remote.BaseURL)
}

func TestRootCommandWiring(t *testing.T) {
	root := RootCommand()

	assert.Equal(t, "vectable", root.Name)

	names := make([]string, 0, len(root.Commands))
	for _, cmd := range root.Commands {
		names = append(names, cmd.Name)
	}

	assert.ElementsMatch(t,
		[]string{"describe", "count", "add", "tables", "config", "version"}, names)
}
