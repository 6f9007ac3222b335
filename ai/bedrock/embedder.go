package bedrock

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/poiesic/searchrag/ai"
	"github.com/tmc/langchaingo/embeddings"
	lcembed "github.com/tmc/langchaingo/embeddings/bedrock"
)

// Embedder implements ai.Embedder using Bedrock embedding models.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(client *bedrockruntime.Client, config *ai.Config) (*Embedder, error) {
	embedder, err := lcembed.NewBedrock(
		lcembed.WithClient(client),
		lcembed.WithModel(config.EmbeddingModel),
		lcembed.WithStripNewLines(true),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "bedrock-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	return vector, nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
// Titan embedding models take one text per request, so the underlying
// client issues one call per text.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	return vectors, nil
}
