package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	embedder := NewMockEmbedder()

	first, err := embedder.EmbedText(ctx, "ReAct")
	require.NoError(t, err)
	second, err := embedder.EmbedText(ctx, "ReAct")
	require.NoError(t, err)
	other, err := embedder.EmbedText(ctx, "Chain of thought")
	require.NoError(t, err)

	assert.Len(t, first, DefaultDimension)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Equal(t, 3, embedder.CallCount())
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	vector := GenerateDeterministicVector("some page text", 16)

	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder_EmbedTexts(t *testing.T) {
	embedder := NewMockEmbedderWithDimension(4)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
	assert.Equal(t, GenerateDeterministicVector("b", 4), vectors[1])
}

func TestMockEmbedder_InjectedFailure(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("throttled")
	}

	_, err := embedder.EmbedText(context.Background(), "x")
	assert.EqualError(t, err, "throttled")

	embedder.Reset()
	assert.Equal(t, 0, embedder.CallCount())
	_, err = embedder.EmbedText(context.Background(), "x")
	assert.NoError(t, err)
}

func TestRecordingModel(t *testing.T) {
	ctx := context.Background()
	model := NewRecordingModel("first", "second")

	out, err := llms.GenerateFromSinglePrompt(ctx, model, "hello", llms.WithTemperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	out, err = model.Call(ctx, "again")
	require.NoError(t, err)
	assert.Equal(t, "second", out)

	assert.Equal(t, []string{"hello", "again"}, model.Prompts())
}

func TestRecordingModel_Options(t *testing.T) {
	model := NewRecordingModel("ok")

	_, err := llms.GenerateFromSinglePrompt(context.Background(), model, "q",
		llms.WithTemperature(0.5), llms.WithTopP(0.3), llms.WithMaxTokens(64))
	require.NoError(t, err)

	opts := model.LastOptions()
	assert.Equal(t, 0.5, opts.Temperature)
	assert.Equal(t, 0.3, opts.TopP)
	assert.Equal(t, 64, opts.MaxTokens)
}

func TestMockProvider(t *testing.T) {
	provider := NewMockProvider("answer")

	require.NotNil(t, provider.Embedder())
	require.NotNil(t, provider.Model())

	out, err := provider.Model().Call(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	mp := provider.(*MockProvider)
	assert.False(t, mp.Closed())
	require.NoError(t, provider.Close())
	assert.True(t, mp.Closed())
}
