package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	base := testBase()
	upload(t, base+"/config.yaml", []byte("backendURL: http://backend:8000\nassetsBase: mem://localhost/assets\ntimeoutSeconds: 5\ncolumns: 12\n"))
	upload(t, base+"/config.json", []byte(`{"stateBase":"mem://localhost/state","useData":true}`))

	cfg, err := LoadConfig(ctx, base+"/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000", cfg.BackendURL)
	assert.Equal(t, 5, cfg.TimeoutSeconds)
	assert.Equal(t, 12, cfg.Columns)

	other, err := LoadConfig(ctx, base+"/config.json")
	require.NoError(t, err)
	cfg.Merge(other)
	assert.Equal(t, "mem://localhost/state", cfg.StateBase)
	assert.True(t, cfg.UseData)
	assert.Equal(t, "mem://localhost/assets", cfg.AssetsBase, "zero fields do not overwrite")

	empty, err := LoadConfig(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, empty)

	_, err = LoadConfig(ctx, base+"/missing.yaml")
	assert.Error(t, err)
}
