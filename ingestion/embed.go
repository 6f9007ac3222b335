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
	"github.com/poiesic/searchrag/ai"
	"github.com/poiesic/searchrag/core"
	"golang.org/x/time/rate"
)

// Embedder attaches an embedding vector to each page.
type Embedder struct {
	embedder ai.Embedder
	settings settings
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// EmbedResult holds the pages in their original order. Pages that failed to
// embed carry no vector.
type EmbedResult struct {
	Pages    []core.Page
	Embedded int
	Failed   int
}

// NewEmbedder creates an Embedder backed by embedder.
func NewEmbedder(embedder ai.Embedder, opts ...Option) (*Embedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	e := &Embedder{
		embedder: embedder,
		settings: s,
		logger:   s.logger,
	}
	if s.rateLimit > 0 {
		burst := int(s.rateLimit)
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(s.rateLimit), burst)
	}
	return e, nil
}

// EmbedPages embeds the text of every page. A page that fails is logged with
// its page number and left without a vector; the remaining pages continue.
// An error is returned only when the pool cannot run or ctx is cancelled.
func (e *Embedder) EmbedPages(ctx context.Context, pages []core.Page) (*EmbedResult, error) {
	out := make([]core.Page, len(pages))
	copy(out, pages)

	pool, err := ants.NewPool(e.settings.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding pool: %w", err)
	}
	defer pool.Release()

	tracker := NewProgressTracker(e.settings.progress, "Embedding", len(out), 1)
	tracker.Start()

	var (
		wg       sync.WaitGroup
		embedded atomic.Int64
		failed   atomic.Int64
	)
	for i := range out {
		page := &out[i]
		page.Vector = nil

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer tracker.Increment(1)

			if err := e.embedPage(ctx, page); err != nil {
				failed.Add(1)
				e.logger.Error("failed to embed page", "page_number", page.PageNumber, "err", err)
				return
			}
			embedded.Add(1)
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

	result := &EmbedResult{
		Pages:    out,
		Embedded: int(embedded.Load()),
		Failed:   int(failed.Load()),
	}
	e.logger.Info("pages embedded", "embedded", result.Embedded, "failed", result.Failed, "elapsed", elapsed)
	return result, nil
}

func (e *Embedder) embedPage(ctx context.Context, page *core.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	vector, err := e.embedder.EmbedText(ctx, page.Text)
	if err != nil {
		return err
	}
	if len(vector) == 0 {
		return errEmptyEmbedding
	}
	if dim := e.settings.dimension; dim > 0 && len(vector) != dim {
		return fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, len(vector), dim)
	}
	page.Vector = vector
	return nil
}
