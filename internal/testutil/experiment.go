package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/palila/internal/config"
	"github.com/vk/palila/internal/hclconfig"
)

// ExperimentDir creates a temporary experiment directory holding the given
// files (relative path -> content) plus an empty placeholder for every
// audio name. It returns the directory path.
func ExperimentDir(t *testing.T, files map[string]string, audio ...string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	for _, name := range audio {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))
	}
	return dir
}

// ParseHCL parses an experiment written in HCL into a Config Tree.
func ParseHCL(t *testing.T, src string) *config.Section {
	t.Helper()

	root, err := hclconfig.NewLoader().LoadBytes(context.Background(), []byte(src), "experiment.hcl")
	require.NoError(t, err)
	return root
}

// AllFilesExist is a file check that accepts every path, for tests that do
// not care about audio files on disk.
func AllFilesExist(string) bool {
	return true
}
