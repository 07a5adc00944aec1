package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type handles [][]string

func (h handles) Headers() []string { return []string{"Handle", "List"} }
func (h handles) Rows() [][]string  { return h }

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":       FormatTable,
		"table":  FormatTable,
		" JSON ": FormatJSON,
		"yml":    FormatYAML,
		"yaml":   FormatYAML,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, handles{{"abc.png", "white"}, {"def.jpg", "block"}}))

	out := buf.String()
	assert.Contains(t, out, "HANDLE")
	assert.Contains(t, out, "LIST")
	assert.Contains(t, out, "abc.png")
	assert.Contains(t, out, "block")
}

func TestPrintTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, map[string]int{"count": 3}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 3, got["count"])
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatYAML, map[string]string{"label": "adult"}))

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "adult", got["label"])
}

func TestPrintKeyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintKeyValues(&buf, [][2]string{{"Handle", "abc.png"}, {"Liked", "true"}}))

	assert.Contains(t, buf.String(), "Handle")
	assert.Contains(t, buf.String(), "abc.png")
}

func TestPrintUnknownFormat(t *testing.T) {
	assert.Error(t, Print(&bytes.Buffer{}, Format("csv"), nil))
}
