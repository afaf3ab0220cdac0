package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/attrbridge/internal/bridge"
	"github.com/vk/attrbridge/internal/engine"
	"github.com/vk/attrbridge/internal/forestio"
	"github.com/vk/attrbridge/internal/objgraph"
)

const (
	confYAML = `
- name: main
  content:
    - {name: serverAddress, value: localhost}
`
	inputsJSON = `[
  {"name": "S", "content": [{"name": "value", "value": "world"}, {"name": "mimeType", "value": "text/plain"}]}
]`
	outputsYAML = `
- name: Result
  content:
    - {name: value, value: ""}
`
	helloHCL = `
function "hello" {
  outputs = {
    Result = { value = "Hello ${inputs.S.value} from ${conf.main.serverAddress} for ${request.service}" }
  }
}
`
	helloExpr = `
reject: 'inputs.S.value == "world" ? "failed" : "succeeded"'
`
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Config{}},
		{name: "full", cfg: Config{LogFormat: "json", LogLevel: "debug", Placement: "self", TypeTags: []string{"mimeType"}}},
		{name: "bad format", cfg: Config{LogFormat: "xml"}, wantErr: "invalid log format"},
		{name: "bad level", cfg: Config{LogLevel: "trace"}, wantErr: "invalid log level"},
		{name: "bad placement", cfg: Config{Placement: "sibling"}, wantErr: "invalid placement"},
		{name: "empty tag", cfg: Config{TypeTags: []string{" "}}, wantErr: "type tag"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, cfg.LogFormat)
			assert.NotEmpty(t, cfg.LogLevel)
		})
	}
}

func TestRunConfig_Validate(t *testing.T) {
	rc := RunConfig{ScriptPath: "x.hcl", Function: "f"}
	require.NoError(t, rc.Validate())
	assert.Equal(t, "json", rc.OutputFormat)

	require.Error(t, (&RunConfig{Function: "f"}).Validate())
	require.Error(t, (&RunConfig{ScriptPath: "x.hcl"}).Validate())
	require.Error(t, (&RunConfig{ScriptPath: "x.hcl", Function: "f", OutputFormat: "cbor"}).Validate())
}

func TestConvertConfig_Validate(t *testing.T) {
	cc := ConvertConfig{ForestPath: "f.json", OutputFormat: "CBOR"}
	require.NoError(t, cc.Validate())
	assert.Equal(t, "cbor", cc.OutputFormat)

	require.Error(t, (&ConvertConfig{}).Validate())
	require.Error(t, (&ConvertConfig{ForestPath: "f.json", OutputFormat: "cbor", Query: "$.S"}).Validate())
}

func TestRun_HCLService(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"conf.yaml":    confYAML,
		"inputs.json":  inputsJSON,
		"outputs.yaml": outputsYAML,
		"hello.hcl":    helloHCL,
	})
	a, out, logs := SetupAppTest(t, Config{})

	status, err := a.Run(context.Background(), RunConfig{
		ScriptPath:   filepath.Join(dir, "hello.hcl"),
		Function:     "hello",
		ConfigPath:   filepath.Join(dir, "conf.yaml"),
		InputsPath:   filepath.Join(dir, "inputs.json"),
		OutputsPath:  filepath.Join(dir, "outputs.yaml"),
		Request:      []string{"service=hello"},
		OutputFormat: "yaml",
	})
	require.NoError(t, err)
	assert.Equal(t, bridge.Succeeded, status)

	forest, err := forestio.Read(strings.NewReader(out.String()), forestio.YAML)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "Hello world from localhost for hello", forest[0].Get("value").Text())
	assert.Contains(t, logs.String(), "Service function completed.")
}

func TestRun_ExprServiceFailure(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"inputs.json":   inputsJSON,
		"outputs.yaml":  outputsYAML,
		"svc.expr.yaml": helloExpr,
	})
	a, out, _ := SetupAppTest(t, Config{})

	status, err := a.Run(context.Background(), RunConfig{
		ScriptPath:  filepath.Join(dir, "svc.expr.yaml"),
		Function:    "reject",
		InputsPath:  filepath.Join(dir, "inputs.json"),
		OutputsPath: filepath.Join(dir, "outputs.yaml"),
	})
	require.NoError(t, err)
	assert.Equal(t, bridge.Failed, status)
	assert.Contains(t, out.String(), `"name": "Result"`)
}

func TestRun_LoadErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"hello.hcl":   helloHCL,
		"broken.hcl":  `function "hello" {`,
		"bad.json":    `{"not": "a forest"}`,
		"service.lua": "return 1",
	})

	testCases := []struct {
		name    string
		rc      RunConfig
		wantErr error
	}{
		{name: "missing script", rc: RunConfig{ScriptPath: filepath.Join(dir, "absent.hcl"), Function: "hello"}, wantErr: engine.ErrScriptLoad},
		{name: "broken script", rc: RunConfig{ScriptPath: filepath.Join(dir, "broken.hcl"), Function: "hello"}, wantErr: engine.ErrScriptLoad},
		{name: "unknown engine", rc: RunConfig{ScriptPath: filepath.Join(dir, "service.lua"), Function: "hello"}, wantErr: engine.ErrScriptLoad},
		{name: "bad inputs", rc: RunConfig{ScriptPath: filepath.Join(dir, "hello.hcl"), Function: "hello", InputsPath: filepath.Join(dir, "bad.json")}},
		{name: "bad request", rc: RunConfig{ScriptPath: filepath.Join(dir, "hello.hcl"), Function: "hello", Request: []string{"novalue"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, out, _ := SetupAppTest(t, Config{})
			status, err := a.Run(context.Background(), tc.rc)
			require.Error(t, err)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}
			assert.Equal(t, bridge.LoadError, status)
			assert.Empty(t, out.String())
		})
	}
}

func TestConvert(t *testing.T) {
	dir := writeFiles(t, map[string]string{"inputs.json": inputsJSON})
	path := filepath.Join(dir, "inputs.json")

	t.Run("json", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, Config{})
		require.NoError(t, a.Convert(context.Background(), ConvertConfig{ForestPath: path}))
		want := "{\n  \"S\": {\n    \"value\": \"world\",\n    \"mimeType\": \"text/plain\"\n  }\n}\n"
		assert.Equal(t, want, out.String())
	})

	t.Run("query", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, Config{})
		require.NoError(t, a.Convert(context.Background(), ConvertConfig{ForestPath: path, Query: "$.S.value"}))
		assert.Equal(t, "[\n  \"world\"\n]\n", out.String())
	})

	t.Run("cbor", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, Config{})
		require.NoError(t, a.Convert(context.Background(), ConvertConfig{ForestPath: path, OutputFormat: "cbor"}))

		got, err := objgraph.UnmarshalCBOR(out.Bytes())
		require.NoError(t, err)
		s := objgraph.NewObject()
		s.Set("value", objgraph.String("world"))
		s.Set("mimeType", objgraph.String("text/plain"))
		want := objgraph.NewObject()
		want.Set("S", s)
		wantNative, err := objgraph.ToNative(want)
		require.NoError(t, err)
		gotNative, err := objgraph.ToNative(got)
		require.NoError(t, err)
		assert.Equal(t, wantNative, gotNative)
	})

	t.Run("self placement", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, Config{Placement: "self"})
		require.NoError(t, a.Convert(context.Background(), ConvertConfig{ForestPath: path}))
		assert.Equal(t, "{}\n", out.String())
	})

	t.Run("invalid query", func(t *testing.T) {
		a, _, _ := SetupAppTest(t, Config{})
		require.Error(t, a.Convert(context.Background(), ConvertConfig{ForestPath: path, Query: "$.list[?(@ =="}))
	})
}

func TestNewApp_RegistersCoreEngines(t *testing.T) {
	a, _, _ := SetupAppTest(t, Config{})
	assert.Equal(t, []string{"expr", "hcl"}, a.Registry().Languages())
}
