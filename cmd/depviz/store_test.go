package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/depviz/internal/config"
	"github.com/matsen/depviz/internal/gav"
)

func TestOpenStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deps.db")
	db, got, err := openStore(&config.Config{}, path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, got)

	created, err := db.UpsertArtifact(context.Background(), gav.New("A", "a", "1"))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestOpenStore_DefaultsToConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.db")
	db, got, err := openStore(&config.Config{DBPath: path}, "")
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, got)
}
