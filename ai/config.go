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

package ai

import (
	"errors"
	"strings"
)

const (
	DefaultRegion         = "eu-central-1"
	DefaultEmbeddingModel = "amazon.titan-embed-text-v1"
	DefaultTextModel      = "amazon.titan-text-lite-v1"
	DefaultTopP           = 0.3
	DefaultMaxTokens      = 512
)

// Config holds configuration for AI service providers.
type Config struct {
	// Region is the AWS region hosting the model runtime.
	Region string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "amazon.titan-embed-text-v1"
	EmbeddingModel string

	// TextModel is the model identifier used to generate answers.
	// Example: "amazon.titan-text-lite-v1"
	TextModel string

	// Temperature controls sampling randomness, 0 to 1.
	// Default: 0
	Temperature float64

	// TopP is the nucleus sampling threshold, 0 to 1.
	// Default: 0.3
	TopP float64

	// MaxTokens caps the length of a generated answer.
	// Default: 512
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithRegion sets the AWS region.
func WithRegion(region string) ConfigOption {
	return func(c *Config) {
		c.Region = region
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithTextModel sets the text generation model identifier.
func WithTextModel(model string) ConfigOption {
	return func(c *Config) {
		c.TextModel = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithTopP sets the nucleus sampling threshold.
func WithTopP(topP float64) ConfigOption {
	return func(c *Config) {
		c.TopP = topP
	}
}

// WithMaxTokens sets the answer length cap.
func WithMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// DefaultConfig returns a Config using the Titan embedding and text models.
func DefaultConfig() *Config {
	return &Config{
		Region:         DefaultRegion,
		EmbeddingModel: DefaultEmbeddingModel,
		TextModel:      DefaultTextModel,
		Temperature:    0,
		TopP:           DefaultTopP,
		MaxTokens:      DefaultMaxTokens,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithRegion("us-east-1"),
//	    WithTextModel("amazon.titan-text-express-v1"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize trims whitespace from identifiers.
func (c *Config) Normalize() {
	c.Region = strings.TrimSpace(c.Region)
	c.EmbeddingModel = strings.TrimSpace(c.EmbeddingModel)
	c.TextModel = strings.TrimSpace(c.TextModel)
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Region == "" {
		return errors.New("ai config: Region is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.TextModel == "" {
		return errors.New("ai config: TextModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return errors.New("ai config: Temperature must be between 0 and 1")
	}
	if c.TopP < 0 || c.TopP > 1 {
		return errors.New("ai config: TopP must be between 0 and 1")
	}
	if c.MaxTokens < 0 {
		return errors.New("ai config: MaxTokens must not be negative")
	}
	return nil
}
