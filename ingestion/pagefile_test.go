package ingestion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/searchrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePages(t *testing.T) {
	t.Run("creates parent directories and indents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "nested", "pages.json")
		pages := []core.Page{
			{PageNumber: 1, Text: "first", Vector: []float32{0.5, 0.25}},
			{PageNumber: 2, Text: "second"},
		}
		require.NoError(t, WritePages(path, pages))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"page_number\": 1,"))

		var raw []map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		require.Len(t, raw, 2)
		assert.Contains(t, raw[0], "vector_field")
		assert.NotContains(t, raw[1], "vector_field")
	})

	t.Run("nil pages become an empty array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pages.json")
		require.NoError(t, WritePages(path, nil))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})
}

func TestReadPages(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "pages.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("reads what WritePages wrote", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pages.json")
		pages := []core.Page{
			{PageNumber: 1, Text: "first", Vector: []float32{0.5, 0.25}},
			{PageNumber: 2, Text: "second"},
		}
		require.NoError(t, WritePages(path, pages))

		got, err := ReadPages(path)
		require.NoError(t, err)
		assert.Equal(t, pages, got)
	})

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "object", content: `{"page_number": 1, "text": "x"}`, want: "JSON object"},
		{name: "string", content: `"pages"`, want: "JSON string"},
		{name: "number", content: `42`, want: "JSON number"},
		{name: "null", content: `null`, want: "JSON null"},
		{name: "empty", content: "  \n", want: "empty document"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := ReadPages(write(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPageFile)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("rejects malformed array", func(t *testing.T) {
		_, err := ReadPages(write(t, `[{"page_number": "one"}]`))
		assert.ErrorIs(t, err, ErrInvalidPageFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadPages(filepath.Join(t.TempDir(), "missing.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("sample is capped", func(t *testing.T) {
		long := `"` + strings.Repeat("x", 500) + `"`
		assert.Len(t, sample([]byte(long)), sampleLength)
		assert.Equal(t, "[]", sample([]byte("[]")))
	})
}
