package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/searchrag"
	"github.com/poiesic/searchrag/config"
	"github.com/poiesic/searchrag/index"
	"github.com/poiesic/searchrag/ingestion"
	"github.com/urfave/cli/v2"
)

func indexFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "index",
		Usage: "Index name (defaults to the configured index)",
	}
}

func documentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "embed",
			Usage:  "Extract the PDF pages and write them with their embeddings to a JSON file",
			Action: embedCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "pdf",
					Usage: "PDF to read (defaults to the configured path)",
				},
				&cli.StringFlag{
					Name:  "out",
					Usage: "Page file to write (defaults to the configured path)",
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "Concurrent embedding requests (defaults to the configured value)",
				},
				&cli.Float64Flag{
					Name:  "rate",
					Usage: "Maximum embedding requests per second, 0 for unlimited (defaults to the configured value)",
				},
			},
		},
		{
			Name:   "create-index",
			Usage:  "Create the kNN index",
			Action: createIndexCommand,
			Flags:  []cli.Flag{indexFlag()},
		},
		{
			Name:   "ingest",
			Usage:  "Write the embedded pages to the index",
			Action: ingestCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "in",
					Usage: "Page file to read (defaults to the configured path)",
				},
				indexFlag(),
				&cli.IntFlag{
					Name:  "workers",
					Usage: "Concurrent index requests (defaults to the configured value)",
				},
			},
		},
		{
			Name:   "check-index",
			Usage:  "Print index statistics, mapping and sample documents",
			Action: checkIndexCommand,
			Flags: []cli.Flag{
				indexFlag(),
				&cli.IntFlag{
					Name:  "samples",
					Usage: "Number of sample documents (defaults to the configured value)",
				},
			},
		},
		{
			Name:   "delete-indices",
			Usage:  "Delete every non-system index, or only --index",
			Action: deleteIndicesCommand,
			Flags:  []cli.Flag{indexFlag()},
		},
		{
			Name:   "ask",
			Usage:  "Answer a question from the indexed pages",
			Action: askCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "question",
					Aliases: []string{"q"},
					Usage:   "Question to ask (defaults to the configured question)",
				},
				indexFlag(),
				&cli.IntFlag{
					Name:  "top-k",
					Usage: "Pages retrieved per question (defaults to the configured value)",
				},
			},
		},
	}
}

func stringOr(c *cli.Context, name, fallback string) string {
	if v := c.String(name); v != "" {
		return v
	}
	return fallback
}

func intOr(c *cli.Context, name string, fallback int) int {
	if c.IsSet(name) {
		return c.Int(name)
	}
	return fallback
}

func embedCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		pdfPath := stringOr(c, "pdf", cfg.Paths.PDF)
		outPath := stringOr(c, "out", cfg.Paths.Pages)
		workers := intOr(c, "workers", cfg.Ingest.EmbedWorkers)
		rate := cfg.Ingest.RateLimit
		if c.IsSet("rate") {
			rate = c.Float64("rate")
		}

		fmt.Fprintf(c.App.ErrWriter, "PDF: %s\n", pdfPath)
		fmt.Fprintf(c.App.ErrWriter, "Output: %s\n", outPath)
		fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Models.Embedding)
		fmt.Fprintf(c.App.ErrWriter, "Workers: %d\n", workers)
		fmt.Fprintln(c.App.ErrWriter)

		pages, err := ingestion.ExtractPages(ctx, pdfPath)
		if err != nil {
			return err
		}

		embedder, err := stack.PageEmbedder(ctx,
			ingestion.WithWorkers(workers),
			ingestion.WithRateLimit(rate),
			ingestion.WithProgress(c.App.ErrWriter),
		)
		if err != nil {
			return err
		}

		result, err := embedder.EmbedPages(ctx, pages)
		if err != nil {
			return fmt.Errorf("embedding failed: %w", err)
		}
		if err := ingestion.WritePages(outPath, result.Pages); err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "Embedded %d of %d pages (%d failed), written to %s\n",
			result.Embedded, len(result.Pages), result.Failed, outPath)
		return nil
	})
}

func createIndexCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		name := stringOr(c, "index", cfg.Index.Name)
		s := cfg.Index.Settings
		fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", name)
		fmt.Fprintf(c.App.ErrWriter, "Shards: %d, replicas: %d, space: %s, dimension: %d\n", s.Shards, s.Replicas, s.SpaceType, s.Dimension)
		fmt.Fprintln(c.App.ErrWriter)

		client, err := stack.IndexClient(ctx)
		if err != nil {
			return err
		}
		if err := client.CreateIndex(ctx, name, s); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Index %s created\n", name)
		return nil
	})
}

func ingestCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		inPath := stringOr(c, "in", cfg.Paths.Pages)
		name := stringOr(c, "index", cfg.Index.Name)
		workers := intOr(c, "workers", cfg.Ingest.IngestWorkers)

		fmt.Fprintf(c.App.ErrWriter, "Input: %s\n", inPath)
		fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", name)
		fmt.Fprintf(c.App.ErrWriter, "Workers: %d\n", workers)
		fmt.Fprintln(c.App.ErrWriter)

		pages, err := ingestion.ReadPages(inPath)
		if err != nil {
			return err
		}

		client, err := stack.IndexClient(ctx)
		if err != nil {
			return err
		}
		ingester, err := stack.Ingester(client,
			ingestion.WithWorkers(workers),
			ingestion.WithProgress(c.App.ErrWriter),
		)
		if err != nil {
			return err
		}

		report, err := ingester.Ingest(ctx, name, pages)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		if err := client.Refresh(ctx, name); err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "Indexed %d pages into %s (%d skipped, %d failed)\n",
			report.Indexed, name, report.Skipped, report.Failed)
		return nil
	})
}

func checkIndexCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		name := stringOr(c, "index", cfg.Index.Name)
		samples := intOr(c, "samples", cfg.Index.SampleSize)

		client, err := stack.IndexClient(ctx)
		if err != nil {
			return err
		}
		report, err := client.Inspect(ctx, name, samples)
		if err != nil {
			return err
		}

		w := c.App.Writer
		fmt.Fprintf(w, "Index: %s\n", report.Name)
		fmt.Fprintf(w, "Documents: %s\n", humanize.Comma(report.DocCount))
		fmt.Fprintf(w, "Size: %s\n", humanize.Bytes(uint64(max(report.StoreSizeBytes, 0))))

		var mapping bytes.Buffer
		if err := json.Indent(&mapping, report.Mapping, "", "  "); err != nil {
			return fmt.Errorf("failed to format mapping: %w", err)
		}
		fmt.Fprintf(w, "\nMapping:\n%s\n", mapping.String())

		fmt.Fprintf(w, "\nSample documents (%d):\n", len(report.Samples))
		for i, source := range report.Samples {
			doc, err := index.SummarizeSource(source)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\nDocument %d:\n%s\n", i+1, data)
		}
		return nil
	})
}

func deleteIndicesCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		client, err := stack.IndexClient(ctx)
		if err != nil {
			return err
		}

		if name := c.String("index"); name != "" {
			if err := client.DeleteIndex(ctx, name); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Deleted index %s\n", name)
			return nil
		}

		report, err := client.DeleteAll(ctx)
		if err != nil {
			return err
		}
		w := c.App.Writer
		for _, name := range report.Deleted {
			fmt.Fprintf(w, "Deleted index %s\n", name)
		}
		for _, name := range report.Skipped {
			fmt.Fprintf(w, "Skipped system index %s\n", name)
		}
		for _, name := range report.Failed {
			fmt.Fprintf(w, "Failed to delete index %s\n", name)
		}
		fmt.Fprintf(w, "Remaining indices: %v\n", report.Remaining)
		if len(report.Failed) > 0 {
			return fmt.Errorf("failed to delete %d indices", len(report.Failed))
		}
		return nil
	})
}

func askCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		question := stringOr(c, "question", cfg.Ask.Question)
		name := stringOr(c, "index", cfg.Index.Name)
		topK := intOr(c, "top-k", cfg.Ask.TopK)

		fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", name)
		fmt.Fprintf(c.App.ErrWriter, "Text model: %s\n", cfg.Models.Text)
		fmt.Fprintf(c.App.ErrWriter, "Top k: %d\n", topK)
		fmt.Fprintln(c.App.ErrWriter)

		asker, err := stack.Asker(ctx, name, topK)
		if err != nil {
			return err
		}
		answer, err := asker.Ask(ctx, question)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "Question: %s\n", answer.Question)
		fmt.Fprintf(c.App.Writer, "Answer: %s\n", answer.Text)
		fmt.Fprintf(c.App.Writer, "Sources: %d pages\n", len(answer.Sources))
		return nil
	})
}
