package forestio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/attrbridge/internal/attr"
)

const jsonForest = `[
  {
    "name": "S",
    "content": [
      {"name": "value", "value": "world"},
      {"name": "length", "value": 3}
    ],
    "child": [
      {"name": "inner", "content": [{"name": "value", "value": "AGE=", "encoding": "base64"}]}
    ]
  },
  {"name": "empty"}
]`

const yamlForest = `
- name: S
  content:
    - {name: value, value: world}
    - {name: length, value: "3"}
  child:
    - name: inner
      content:
        - {name: value, value: AGE=, encoding: base64}
- name: empty
`

func wantForest() attr.Forest {
	return attr.Forest{
		{
			Name:    "S",
			Content: []attr.Node{attr.String("value", "world"), attr.String("length", "3")},
			Child: attr.Forest{
				{Name: "inner", Content: []attr.Node{{Name: "value", Value: []byte{0, 'a'}}}},
			},
		},
		{Name: "empty"},
	}
}

func TestRead(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
		doc    string
	}{
		{name: "json", format: JSON, doc: jsonForest},
		{name: "yaml", format: YAML, doc: yamlForest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tc.doc), tc.format)
			require.NoError(t, err)
			if diff := cmp.Diff(wantForest(), got); diff != "" {
				t.Errorf("Read() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRead_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
		doc    string
	}{
		{name: "json not a list", format: JSON, doc: `{"name": "S"}`},
		{name: "json syntax", format: JSON, doc: `[{"name": }]`},
		{name: "json content not a list", format: JSON, doc: `[{"name": "S", "content": {"name": "x"}}]`},
		{name: "json child not a list", format: JSON, doc: `[{"name": "S", "child": "x"}]`},
		{name: "group without name", format: YAML, doc: "- content: []\n"},
		{name: "node without name", format: YAML, doc: "- name: S\n  content:\n    - {value: x}\n"},
		{name: "bad base64", format: YAML, doc: "- name: S\n  content:\n    - {name: v, value: '!!', encoding: base64}\n"},
		{name: "unknown encoding", format: YAML, doc: "- name: S\n  content:\n    - {name: v, value: x, encoding: hex}\n"},
		{name: "unknown format", format: Format("toml"), doc: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.doc), tc.format)
			require.Error(t, err)
		})
	}
}

func TestRead_MalformedContentIsReported(t *testing.T) {
	_, err := Read(strings.NewReader(`[{"name": "S", "content": {"name": "x"}}]`), JSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$[0].content: expected a list of nodes")
}

func TestWriteThenRead(t *testing.T) {
	forest := wantForest()
	forest[0].Content = append(forest[0].Content, attr.Bytes("blob", []byte{0xff, 0x00, 0x01}))

	for _, format := range []Format{JSON, YAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, forest, format))
			assert.Contains(t, buf.String(), "base64")

			got, err := Read(&buf, format)
			require.NoError(t, err)
			if diff := cmp.Diff(forest, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inputs.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlForest), 0o600))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = ReadFile(filepath.Join(dir, "inputs"))
	require.Error(t, err)
	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)

	f, err = FormatFromPath("conf/main.json")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)

	_, err = ParseFormat("ini")
	require.Error(t, err)
}

func TestParsePairs(t *testing.T) {
	nodes, err := ParsePairs([]string{"service=hello", "query=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, []attr.Node{
		attr.String("service", "hello"),
		attr.String("query", "a=b"),
		attr.String("empty", ""),
	}, nodes)

	_, err = ParsePairs([]string{"novalue"})
	require.Error(t, err)
	_, err = ParsePairs([]string{"=x"})
	require.Error(t, err)
}
