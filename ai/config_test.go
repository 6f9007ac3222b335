package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "eu-central-1", cfg.Region)
	assert.Equal(t, "amazon.titan-embed-text-v1", cfg.EmbeddingModel)
	assert.Equal(t, "amazon.titan-text-lite-v1", cfg.TextModel)
	assert.Equal(t, 0.0, cfg.Temperature)
	assert.Equal(t, 0.3, cfg.TopP)
	assert.Equal(t, 512, cfg.MaxTokens)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom region", func(t *testing.T) {
		cfg := NewConfig(WithRegion("us-east-1"))

		assert.Equal(t, "us-east-1", cfg.Region)
		assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("amazon.titan-embed-text-v2:0"),
			WithTextModel("amazon.titan-text-express-v1"),
		)

		assert.Equal(t, "amazon.titan-embed-text-v2:0", cfg.EmbeddingModel)
		assert.Equal(t, "amazon.titan-text-express-v1", cfg.TextModel)
	})

	t.Run("with sampling options", func(t *testing.T) {
		cfg := NewConfig(
			WithTemperature(0.7),
			WithTopP(0.9),
			WithMaxTokens(1024),
		)

		assert.Equal(t, 0.7, cfg.Temperature)
		assert.Equal(t, 0.9, cfg.TopP)
		assert.Equal(t, 1024, cfg.MaxTokens)
	})
}

func TestConfigNormalize(t *testing.T) {
	cfg := &Config{
		Region:         "  eu-west-1 ",
		EmbeddingModel: "\tamazon.titan-embed-text-v1",
		TextModel:      "amazon.titan-text-lite-v1\n",
	}

	cfg.Normalize()

	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "amazon.titan-embed-text-v1", cfg.EmbeddingModel)
	assert.Equal(t, "amazon.titan-text-lite-v1", cfg.TextModel)
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()

		require.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing region",
			mutate:  func(c *Config) { c.Region = "" },
			wantErr: "Region",
		},
		{
			name:    "blank region",
			mutate:  func(c *Config) { c.Region = "   " },
			wantErr: "Region",
		},
		{
			name:    "missing embedding model",
			mutate:  func(c *Config) { c.EmbeddingModel = "" },
			wantErr: "EmbeddingModel",
		},
		{
			name:    "missing text model",
			mutate:  func(c *Config) { c.TextModel = "" },
			wantErr: "TextModel",
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Temperature = 1.5 },
			wantErr: "Temperature",
		},
		{
			name:    "negative temperature",
			mutate:  func(c *Config) { c.Temperature = -0.1 },
			wantErr: "Temperature",
		},
		{
			name:    "top p out of range",
			mutate:  func(c *Config) { c.TopP = 2 },
			wantErr: "TopP",
		},
		{
			name:    "negative max tokens",
			mutate:  func(c *Config) { c.MaxTokens = -1 },
			wantErr: "MaxTokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
