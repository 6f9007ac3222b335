package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensearch-project/opensearch-go/opensearchapi"
	"github.com/opensearch-project/opensearch-go/opensearchutil"
	"github.com/poiesic/searchrag/core"
)

// IndexDocument writes doc under id and returns the result OpenSearch
// reports, "created" or "updated".
func (c *Client) IndexDocument(ctx context.Context, index, id string, doc core.IndexDocument) (string, error) {
	var res struct {
		ID     string `json:"_id"`
		Result string `json:"result"`
	}
	req := opensearchapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       opensearchutil.NewJSONReader(doc),
	}
	if err := c.do(ctx, "index document "+id, req, &res); err != nil {
		return "", err
	}
	return res.Result, nil
}

// Refresh makes recently written documents searchable.
func (c *Client) Refresh(ctx context.Context, index string) error {
	return c.do(ctx, "refresh "+index, opensearchapi.IndicesRefreshRequest{Index: []string{index}}, nil)
}

// Hit is one kNN search result.
type Hit struct {
	ID    string
	Score float64
	Text  string
}

type knnQuery struct {
	Size   int            `json:"size"`
	Source map[string]any `json:"_source"`
	Query  struct {
		KNN map[string]knnClause `json:"knn"`
	} `json:"query"`
}

type knnClause struct {
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
}

// Search returns the k documents whose vectors are nearest to vector.
// The stored vectors are excluded from the response.
func (c *Client) Search(ctx context.Context, index string, vector []float32, k int) ([]Hit, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}

	q := knnQuery{
		Size:   k,
		Source: map[string]any{"excludes": []string{VectorField}},
	}
	q.Query.KNN = map[string]knnClause{VectorField: {Vector: vector, K: k}}

	var res searchResponse
	req := opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  opensearchutil.NewJSONReader(q),
	}
	if err := c.do(ctx, "knn search "+index, req, &res); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		var src struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(h.Source, &src); err != nil {
			return nil, fmt.Errorf("knn search %s: failed to decode hit %s: %w", index, h.ID, err)
		}
		hits = append(hits, Hit{ID: h.ID, Score: h.Score, Text: src.Text})
	}
	return hits, nil
}
