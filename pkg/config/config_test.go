package config

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesWorkspaceSkeleton(t *testing.T) {
	root := t.TempDir()
	fs, err := Init(root, false)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxWorkers, fs.Config().Overseer.MaxWorkers)

	paths := NewPaths(root)
	assert.DirExists(t, paths.RunDir())
	assert.DirExists(t, paths.StoreDir())
	assert.FileExists(t, paths.ConfigFile())
	assert.FileExists(t, paths.Instructions())
}

func TestInitRefusesWithoutForceWhenAlreadyInitialized(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, false)
	require.NoError(t, err)

	_, err = Init(root, false)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.AlreadyExists))
}

func TestInitWithForceOverwrites(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, false)
	require.NoError(t, err)

	_, err = Init(root, true)
	require.NoError(t, err)
}

func TestLoadRoundTripsConfig(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, false)
	require.NoError(t, err)

	fs, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "claude", fs.Config().App.LLMCommand)
	assert.Equal(t, defaultBudgetUSD, fs.Config().Costs.BudgetUSD)
}

func TestLoadReportsNotInWorkspaceWhenMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.NotInWorkspace))
}

func TestLoadAppliesTokenEnvOverride(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, false)
	require.NoError(t, err)

	t.Setenv(tokenEnvVar, "sekrit")
	fs, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "sekrit", fs.Config().CodeHost.Token)
}

func TestSetAndSavePersistSessionCodebase(t *testing.T) {
	root := t.TempDir()
	fs, err := Init(root, false)
	require.NoError(t, err)

	require.NoError(t, fs.Set("session", "current_codebase", "cmb-abc123"))
	require.NoError(t, fs.Save())

	reloaded, err := Load(root)
	require.NoError(t, err)
	val, ok := reloaded.Get("session", "current_codebase")
	require.True(t, ok)
	assert.Equal(t, "cmb-abc123", val)
}

func TestSetUnknownKeyIsNotFound(t *testing.T) {
	fs := &FileStore{cfg: Default()}
	err := fs.Set("bogus", "key", "v")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.NotFound))
}

func TestGetUnknownKeyReportsFalse(t *testing.T) {
	fs := &FileStore{cfg: Default()}
	_, ok := fs.Get("bogus", "key")
	assert.False(t, ok)
}

func TestPathsLayout(t *testing.T) {
	p := NewPaths("/ws")
	assert.Equal(t, filepath.Join("/ws", ".foreman"), p.Dir())
	assert.Equal(t, filepath.Join("/ws", ".foreman", "config.toml"), p.ConfigFile())
	assert.Equal(t, filepath.Join("/ws", ".foreman", "run"), p.RunDir())
	assert.Equal(t, filepath.Join("/ws", ".foreman", "store"), p.StoreDir())
}

