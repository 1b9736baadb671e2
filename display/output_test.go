package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	v := struct {
		Name  string `json:"name" yaml:"name" toml:"name"`
		Count int    `json:"count" yaml:"count" toml:"count"`
	}{"x", 2}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, v))
	assert.Equal(t, "{\n  \"name\": \"x\",\n  \"count\": 2\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, v))
	assert.Equal(t, "name: x\ncount: 2\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, FormatTOML, v))
	assert.Contains(t, buf.String(), "name = 'x'")
	assert.Contains(t, buf.String(), "count = 2")

	assert.Error(t, Write(&buf, "xml", v))
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, CheckFormat(FormatYAML, FormatTable, FormatYAML))
	err := CheckFormat(FormatTOML, FormatTable, FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: toml")
}
