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

package mock

import (
	"github.com/poiesic/searchrag/ai"
	"github.com/tmc/langchaingo/llms"
)

// MockProvider is a test double for ai.Provider.
// It aggregates a mock embedder and a scripted model.
type MockProvider struct {
	embedder *MockEmbedder
	model    *RecordingModel
	closed   bool
}

// NewMockProvider creates a new mock provider whose model always answers with answer.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockModel() to access concrete types for test assertions.
func NewMockProvider(answer string) ai.Provider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		model:    NewRecordingModel(answer),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
func NewMockProviderWithServices(embedder *MockEmbedder, model *RecordingModel) ai.Provider {
	return &MockProvider{
		embedder: embedder,
		model:    model,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Model returns the scripted model.
func (p *MockProvider) Model() llms.Model {
	return p.model
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockModel returns the underlying model for test assertions.
func (p *MockProvider) GetMockModel() *RecordingModel {
	return p.model
}
