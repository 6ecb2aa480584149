package storage

import (
	"context"
	"testing"

	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteAppConfigRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p, _ := newTestProvider(t)
	ctx := context.Background()

	cfg, err := p.ReadAppConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, appconfig.DefaultAPIPort, cfg.APIPort)

	cfg.ProjectsFolder = "/tmp/projects"
	require.NoError(t, p.WriteAppConfig(ctx, *cfg))

	reloaded, err := p.ReadAppConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/projects", reloaded.ProjectsFolder)

	port, err := p.GetAPIPort(ctx)
	require.NoError(t, err)
	assert.Equal(t, appconfig.DefaultAPIPort, port)
}

func TestListAndAddToRecent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p, _ := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.AddToRecent(ctx, "proj", "/path/proj"))

	recents, err := p.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, recents, 1)
	assert.Equal(t, "proj", recents[0].Name)
}
