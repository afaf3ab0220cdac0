package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/attrbridge/internal/cli"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Service(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	script := writeFile(t, dir, "hello.hcl", `
function "hello" {
  outputs = { Result = { value = "Hello ${inputs.S.value}" } }
}
`)
	inputs := writeFile(t, dir, "inputs.yaml", "- name: S\n  content:\n    - {name: value, value: world}\n")
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"run", script, "hello", "--inputs", inputs, "-f", "yaml"})

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), "name: Result")
	assert.Contains(t, out.String(), "value: Hello world")
}

func TestRun_ServiceFailureExitCode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := writeFile(t, dir, "svc.expr", "check: '4'\n")

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"run", script, "check"})

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, cli.ExitFailed, exitErr.Code)
}

func TestRun_LoadErrorExitCode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := writeFile(t, dir, "broken.hcl", `function "hello" {`)

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"run", script, "hello"})

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, cli.ExitLoadError, exitErr.Code)
	assert.Contains(t, exitErr.Message, "script load failed")
}

func TestRun_Convert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	forest := writeFile(t, dir, "inputs.json", `[{"name": "S", "content": [{"name": "value", "value": "world"}]}]`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"convert", forest, "--query", "$.S.value"})

	require.NoError(t, err)
	assert.JSONEq(t, `["world"]`, out.String())
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The help flag prints usage and exits cleanly.
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error for help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag makes cobra report a usage error.
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr), "run() should return an ExitError when argument parsing fails")
	require.Equal(t, cli.ExitUsage, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
