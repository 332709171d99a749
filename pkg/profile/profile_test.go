package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithoutCommandWritesFallback(t *testing.T) {
	dir := t.TempDir()
	g := New(nil)

	require.NoError(t, g.Generate(context.Background(), dir))

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, fallbackTemplate, string(data))
}

func TestGenerateWithCommandUsesOutput(t *testing.T) {
	dir := t.TempDir()
	g := New([]string{"echo", "hello profile"})

	require.NoError(t, g.Generate(context.Background(), dir))

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, "hello profile\n", string(data))
}

func TestGenerateFallsBackOnNonzeroExit(t *testing.T) {
	dir := t.TempDir()
	g := New([]string{"false"})

	require.NoError(t, g.Generate(context.Background(), dir))

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, fallbackTemplate, string(data))
}

func TestGenerateFallsBackOnTimeout(t *testing.T) {
	dir := t.TempDir()
	g := New([]string{"sleep", "5"})
	g.Timeout = 10 * time.Millisecond

	require.NoError(t, g.Generate(context.Background(), dir))

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, fallbackTemplate, string(data))
}
