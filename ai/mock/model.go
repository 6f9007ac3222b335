package mock

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// RecordingModel is an llms.Model that answers from a fixed script and
// remembers every prompt and call option it received.
type RecordingModel struct {
	llm *fake.LLM

	mu      sync.Mutex
	prompts []string
	options []llms.CallOptions
}

var _ llms.Model = (*RecordingModel)(nil)

// NewRecordingModel creates a model that cycles through responses.
func NewRecordingModel(responses ...string) *RecordingModel {
	return &RecordingModel{llm: fake.NewFakeLLM(responses)}
}

// GenerateContent records the text parts of messages and returns the next scripted response.
func (m *RecordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	var prompt string
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt += text.Text
			}
		}
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, opts)
	m.mu.Unlock()

	return m.llm.GenerateContent(ctx, messages, options...)
}

// Call implements llms.Model.
func (m *RecordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Prompts returns every prompt seen so far.
func (m *RecordingModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastOptions returns the call options of the most recent request.
func (m *RecordingModel) LastOptions() llms.CallOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.options) == 0 {
		return llms.CallOptions{}
	}
	return m.options[len(m.options)-1]
}
