// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder and ai.Provider
// for use in unit tests. The mocks run without network access and behave
// deterministically.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider("ReAct interleaves reasoning and acting.")
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("throttled")
//	}
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - RecordingModel: Cycles through scripted answers and records prompts
//   - MockProvider: Aggregates a mock embedder and a recording model
package mock
