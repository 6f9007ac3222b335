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

// Package ingestion moves a PDF into a kNN index in three steps:
//   - ExtractPages reads one Page per PDF page
//   - Embedder attaches a vector to every page, and WritePages/ReadPages
//     keep the result in a JSON page file between steps
//   - Ingester writes the embedded pages to the index
//
// Embedding and indexing run on a worker pool whose default size is one, so
// pages are processed strictly in order unless more workers are requested.
// A page that fails is logged and counted; it never stops the run.
//
// Example usage:
//
//	pages, err := ingestion.ExtractPages(ctx, "data/document.pdf")
//	if err != nil {
//		return err
//	}
//	embedder, err := ingestion.NewEmbedder(provider.Embedder(), ingestion.WithProgress(os.Stderr))
//	if err != nil {
//		return err
//	}
//	result, err := embedder.EmbedPages(ctx, pages)
//	if err != nil {
//		return err
//	}
//	ingester, err := ingestion.NewIngester(indexClient)
//	if err != nil {
//		return err
//	}
//	report, err := ingester.Ingest(ctx, "rag", result.Pages)
package ingestion
