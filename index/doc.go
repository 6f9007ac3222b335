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

// Package index talks to the OpenSearch cluster behind the search domain.
//
// It creates the kNN index that holds page embeddings, writes page documents,
// reports what an index contains, deletes indices, and exposes the index as a
// langchaingo vector store for retrieval:
//
//	client, err := index.NewClient(index.ClientConfig{
//		Endpoint: endpoint,
//		Username: "rag",
//		Password: password,
//	})
//	err = client.CreateIndex(ctx, "rag", index.DefaultIndexSettings())
//	store, err := index.NewStore(client, embedder, "rag")
//	docs, err := store.SimilaritySearch(ctx, "question", 4)
//
// Retries are the client's own: MaxRetries, retry on timeout and an
// exponential backoff interval between attempts.
package index
