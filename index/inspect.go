package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensearch-project/opensearch-go/opensearchapi"
	"github.com/opensearch-project/opensearch-go/opensearchutil"
)

const DefaultSampleSize = 5

// IndexReport summarizes what an index holds.
type IndexReport struct {
	Name           string
	DocCount       int64
	StoreSizeBytes int64
	Mapping        json.RawMessage
	Samples        []json.RawMessage
}

type statsResponse struct {
	Indices map[string]struct {
		Total struct {
			Docs struct {
				Count int64 `json:"count"`
			} `json:"docs"`
			Store struct {
				SizeInBytes int64 `json:"size_in_bytes"`
			} `json:"store"`
		} `json:"total"`
	} `json:"indices"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Inspect reads the index stats, its mapping and up to sampleSize documents.
// A sampleSize below 1 uses DefaultSampleSize.
func (c *Client) Inspect(ctx context.Context, name string, sampleSize int) (*IndexReport, error) {
	if sampleSize < 1 {
		sampleSize = DefaultSampleSize
	}
	report := &IndexReport{Name: name}

	var stats statsResponse
	if err := c.do(ctx, "index stats "+name, opensearchapi.IndicesStatsRequest{Index: []string{name}}, &stats); err != nil {
		return nil, err
	}
	entry, ok := stats.Indices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s missing from stats", ErrIndexNotFound, name)
	}
	report.DocCount = entry.Total.Docs.Count
	report.StoreSizeBytes = entry.Total.Store.SizeInBytes

	var mapping json.RawMessage
	if err := c.do(ctx, "get mapping "+name, opensearchapi.IndicesGetMappingRequest{Index: []string{name}}, &mapping); err != nil {
		return nil, err
	}
	report.Mapping = mapping

	query := map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"size":  sampleSize,
	}
	var res searchResponse
	req := opensearchapi.SearchRequest{
		Index: []string{name},
		Body:  opensearchutil.NewJSONReader(query),
	}
	if err := c.do(ctx, "sample "+name, req, &res); err != nil {
		return nil, err
	}
	for _, hit := range res.Hits.Hits {
		report.Samples = append(report.Samples, hit.Source)
	}

	c.logger.Debug("index inspected", "index", name, "docs", report.DocCount, "samples", len(report.Samples))
	return report, nil
}

// SummarizeSource decodes a document source and replaces every numeric array,
// such as the embedding, with a short description of its length.
func SummarizeSource(source json.RawMessage) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document source: %w", err)
	}
	for key, value := range doc {
		if values, ok := value.([]any); ok && isNumeric(values) {
			doc[key] = fmt.Sprintf("<%d-dimensional vector>", len(values))
		}
	}
	return doc, nil
}

func isNumeric(values []any) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if _, ok := v.(float64); !ok {
			return false
		}
	}
	return true
}
