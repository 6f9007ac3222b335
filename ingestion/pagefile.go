package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/poiesic/searchrag/core"
)

const sampleLength = 200

// WritePages writes pages to path as an indented JSON array, creating the
// parent directories.
func WritePages(path string, pages []core.Page) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if pages == nil {
		pages = []core.Page{}
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pages: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write page file: %w", err)
	}
	return nil
}

// ReadPages reads a page file written by WritePages. Any top-level JSON value
// other than an array is rejected with ErrInvalidPageFile.
func ReadPages(path string) ([]core.Page, error) {
	logger := slog.Default().With("component", "ingestion")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if kind := jsonKind(trimmed); kind != "array" {
		logger.Error("page file is not a list", "path", path, "type", kind, "sample", sample(trimmed))
		return nil, fmt.Errorf("%w: %s holds a JSON %s, expected an array", ErrInvalidPageFile, path, kind)
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPageFile, err)
	}
	if len(items) > 0 {
		keys := make([]string, 0, len(items[0]))
		for key := range items[0] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		logger.Info("page file loaded", "path", path, "first_item_keys", keys)
	}

	var pages []core.Page
	if err := json.Unmarshal(trimmed, &pages); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPageFile, err)
	}
	logger.Info("pages to process", "count", len(pages))
	return pages, nil
}

func jsonKind(data []byte) string {
	if len(data) == 0 {
		return "empty document"
	}
	switch data[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func sample(data []byte) string {
	if len(data) > sampleLength {
		return string(data[:sampleLength])
	}
	return string(data)
}
