package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachkit/prospector/internal/config"
)

func TestNewWithDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Store)
	assert.NotNil(t, a.Dispatcher)
	assert.NotNil(t, a.Server)
	assert.NotNil(t, a.Tracker)
}

func TestNewWithMemoryArchiveAndTopic(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Archive.Provider = "memory"
	cfg.Pipeline.Topic = "best-emails"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Dispatcher)
}

func TestNewRejectsUnknownArchive(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Archive.Provider = "s3"

	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
