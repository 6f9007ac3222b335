// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"context"
	"fmt"

	"github.com/poiesic/searchrag/ai"
	"github.com/poiesic/searchrag/core"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Store exposes one index as a langchaingo vector store. Queries are embedded
// with the same embedder used for the pages, so both sides share a space.
type Store struct {
	client   *Client
	embedder ai.Embedder
	index    string
}

var _ vectorstores.VectorStore = (*Store)(nil)

// NewStore creates a vector store over the named index.
func NewStore(client *Client, embedder ai.Embedder, index string) (*Store, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := core.ValidateIndexName(index); err != nil {
		return nil, err
	}
	return &Store{client: client, embedder: embedder, index: index}, nil
}

func (s *Store) indexName(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return s.index
}

func applyOptions(options []vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

// AddDocuments embeds and indexes docs, returning their deterministic IDs.
// IDs include the "source" and "page" metadata when present.
// The NameSpace option selects another index.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := applyOptions(options)
	index := s.indexName(opts)

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(docs), len(vectors))
	}

	ids := make([]string, 0, len(docs))
	for i, text := range texts {
		source, _ := docs[i].Metadata["source"].(string)
		page, _ := docs[i].Metadata["page"].(int)
		id := core.DocumentID(source, page, text)
		if _, err := s.client.IndexDocument(ctx, index, id, core.IndexDocument{Text: text, Vector: vectors[i]}); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SimilaritySearch embeds query and returns the numDocuments nearest pages.
// Each document carries its score and its ID under the "_id" metadata key.
// The ScoreThreshold and NameSpace options are honored.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := applyOptions(options)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.client.Search(ctx, s.indexName(opts), vector, numDocuments)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, 0, len(hits))
	for _, hit := range hits {
		score := float32(hit.Score)
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: hit.Text,
			Metadata:    map[string]any{"_id": hit.ID},
			Score:       score,
		})
	}
	return docs, nil
}
