package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendyze/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	app := config.Defaults()
	cfg, err := FromAppConfig(&app)
	require.NoError(t, err)
	assert.Equal(t, Config{Type: HTTPBackend, BaseURL: "http://localhost:8081", Timeout: 10 * time.Second}, cfg)

	app.Backend = "sheets"
	_, err = FromAppConfig(&app)
	assert.Error(t, err)
}

func TestFactory_Create(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.Create(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &MemoryClient{}, res.Client)
	assert.Nil(t, res.Cleanup)

	res, err = f.Create(ctx, Config{Type: HTTPBackend, BaseURL: "http://example.invalid"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPClient{}, res.Client)
	require.NotNil(t, res.Cleanup)
	assert.NoError(t, res.Cleanup())

	_, err = f.Create(ctx, Config{Type: HTTPBackend})
	assert.Error(t, err)

	_, err = f.Create(ctx, Config{Type: "ftp"})
	assert.Error(t, err)
}
