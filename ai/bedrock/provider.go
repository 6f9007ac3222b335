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

package bedrock

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/poiesic/searchrag/ai"
	"github.com/tmc/langchaingo/llms"
	lcbedrock "github.com/tmc/langchaingo/llms/bedrock"
)

// Provider implements ai.Provider using Amazon Bedrock.
// The embedder and the text model share one runtime client.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	model    *lcbedrock.LLM
	logger   *slog.Logger
}

// NewProvider creates a new AI provider backed by Bedrock.
// The config is validated before use and its region overrides awsCfg's.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction.
func NewProvider(awsCfg aws.Config, config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := newRuntimeClient(awsCfg, config)

	embedder, err := newEmbedder(client, config)
	if err != nil {
		return nil, err
	}

	model, err := lcbedrock.New(
		lcbedrock.WithClient(client),
		lcbedrock.WithModel(config.TextModel),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "bedrock-provider"),
	}, nil
}

func newRuntimeClient(awsCfg aws.Config, config *ai.Config) *bedrockruntime.Client {
	return bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		o.Region = config.Region
	})
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Model returns the text generation model.
func (p *Provider) Model() llms.Model {
	return p.model
}

// Close releases resources held by the provider.
// Currently a no-op as the runtime client doesn't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing Bedrock provider")
	return nil
}
