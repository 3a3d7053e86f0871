package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ConfigError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An experiment with a syntax error fails while loading.
	invalidHCL := `
		part "1" {
			audio "1" {
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "experiment.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{"-plan", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), strings.NewReader(""), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error for a broken experiment file")
	require.Contains(t, runErr.Error(), "failed to load configuration")
}

func TestRun_Plan(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "a.wav"), []byte("RIFF"), 0600))
	src := `
pid_mode = "auto"
part "1" {
  audio "1" {
    filename = "a.wav"
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "experiment.hcl"), []byte(src), 0600))

	out := &bytes.Buffer{}
	err := run(context.Background(), strings.NewReader(""), out, &bytes.Buffer{}, []string{"-plan", "-e", tempDir})

	require.NoError(t, err)
	require.Contains(t, out.String(), "part 1-audio 1")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should see `shouldExit=true` and return a nil error.
	err := run(context.Background(), strings.NewReader(""), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should propagate the error from cli.Parse.
	err := run(context.Background(), strings.NewReader(""), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
