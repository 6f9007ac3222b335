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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/searchrag/core"
)

const summaryLength = 80

// DocumentIndexer writes one document to an index. *index.Client satisfies it.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, index, id string, doc core.IndexDocument) (string, error)
}

// Ingester writes embedded pages to an index.
type Ingester struct {
	indexer  DocumentIndexer
	settings settings
	logger   *slog.Logger
}

// IngestReport counts what happened to each page.
type IngestReport struct {
	Indexed int
	Skipped int
	Failed  int
}

// NewIngester creates an Ingester writing through indexer.
func NewIngester(indexer DocumentIndexer, opts ...Option) (*Ingester, error) {
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Ingester{indexer: indexer, settings: s, logger: s.logger}, nil
}

// Ingest indexes every page under its deterministic document ID. Pages
// without a vector are skipped. A page that fails is logged and counted.
func (in *Ingester) Ingest(ctx context.Context, index string, pages []core.Page) (*IngestReport, error) {
	if err := core.ValidateIndexName(index); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(in.settings.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion pool: %w", err)
	}
	defer pool.Release()

	tracker := NewProgressTracker(in.settings.progress, "Indexing", len(pages), 1)
	tracker.Start()

	var (
		wg      sync.WaitGroup
		indexed atomic.Int64
		skipped atomic.Int64
		failed  atomic.Int64
	)
	for i := range pages {
		page := pages[i]
		if !page.HasVector() {
			skipped.Add(1)
			tracker.Increment(1)
			in.logger.Warn("skipping page without vector", "page_number", page.PageNumber)
			continue
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer tracker.Increment(1)

			result, err := in.indexPage(ctx, index, &page)
			if err != nil {
				failed.Add(1)
				in.logger.Error("failed to index page", "page_number", page.PageNumber, "page", summarize(&page), "err", err)
				return
			}
			indexed.Add(1)
			in.logger.Info(fmt.Sprintf("indexed page %d: %s", page.PageNumber, result))
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit page %d: %w", page.PageNumber, submitErr)
		}
	}
	wg.Wait()
	elapsed := tracker.Elapsed()
	tracker.Finish()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &IngestReport{
		Indexed: int(indexed.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	in.logger.Info("ingestion finished", "index", index, "indexed", report.Indexed, "skipped", report.Skipped, "failed", report.Failed, "elapsed", elapsed)
	return report, nil
}

func (in *Ingester) indexPage(ctx context.Context, index string, page *core.Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := core.ValidatePage(page, in.settings.dimension); err != nil {
		return "", err
	}
	return in.indexer.IndexDocument(ctx, index, page.DocumentID(), core.NewIndexDocument(page))
}

func summarize(page *core.Page) string {
	text := []rune(page.Text)
	if len(text) > summaryLength {
		text = append(text[:summaryLength], []rune("...")...)
	}
	return fmt.Sprintf("page %d (%d dims): %q", page.PageNumber, len(page.Vector), string(text))
}
