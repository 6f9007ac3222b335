// Package config loads the YAML application configuration shared by every
// command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/searchrag/ai"
	"github.com/poiesic/searchrag/core"
	"github.com/poiesic/searchrag/index"
	"github.com/poiesic/searchrag/provision"
	"github.com/poiesic/searchrag/rag"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath       = "searchrag.yaml"
	DefaultStateDir   = ".searchrag"
	DefaultIndexName  = "rag"
	DefaultPDFPath    = "data/document.pdf"
	DefaultPagesPath  = "data/text_with_embeddings.json"
	DefaultTimeoutSec = 30
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// IndexConfig names the index and describes how it is created and reached.
type IndexConfig struct {
	Name           string              `yaml:"name"`
	Settings       index.IndexSettings `yaml:"settings"`
	Port           int                 `yaml:"port"`
	TimeoutSecs    int                 `yaml:"timeout_secs"`
	MaxRetries     int                 `yaml:"max_retries"`
	RetryOnTimeout bool                `yaml:"retry_on_timeout"`
	SampleSize     int                 `yaml:"sample_size"`
}

// ModelConfig selects the Bedrock models and the sampling parameters.
type ModelConfig struct {
	Embedding   string  `yaml:"embedding"`
	Text        string  `yaml:"text"`
	Temperature float64  `yaml:"temperature"`
	TopP        *float64 `yaml:"top_p,omitempty"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// EffectiveTopP returns the configured nucleus sampling threshold, or the
// default when none is set. An explicit 0 is kept.
func (m ModelConfig) EffectiveTopP() float64 {
	if m.TopP == nil {
		return ai.DefaultTopP
	}
	return *m.TopP
}

// IngestConfig sizes the embedding and indexing worker pools.
type IngestConfig struct {
	EmbedWorkers  int     `yaml:"embed_workers"`
	IngestWorkers int     `yaml:"ingest_workers"`
	RateLimit     float64 `yaml:"rate_limit"`
}

// PathsConfig holds the input document and the page file locations.
type PathsConfig struct {
	PDF   string `yaml:"pdf"`
	Pages string `yaml:"pages"`
}

// AskConfig holds the question answering defaults.
type AskConfig struct {
	Question string `yaml:"question"`
	TopK     int    `yaml:"top_k"`
}

// Config is the root application configuration.
type Config struct {
	Region   string                 `yaml:"region"`
	StateDir string                 `yaml:"state_dir"`
	Domain   provision.DomainConfig `yaml:"domain"`
	Index    IndexConfig            `yaml:"index"`
	Models   ModelConfig            `yaml:"models"`
	Ingest   IngestConfig           `yaml:"ingest"`
	Paths    PathsConfig            `yaml:"paths"`
	Ask      AskConfig              `yaml:"ask"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		Region:   provision.DefaultRegion,
		StateDir: DefaultStateDir,
		Domain:   provision.DefaultDomainConfig(),
		Index: IndexConfig{
			Name:           DefaultIndexName,
			Settings:       index.DefaultIndexSettings(),
			Port:           index.DefaultPort,
			TimeoutSecs:    DefaultTimeoutSec,
			MaxRetries:     index.DefaultMaxRetries,
			RetryOnTimeout: true,
			SampleSize:     index.DefaultSampleSize,
		},
		Models: ModelConfig{
			Embedding:   ai.DefaultEmbeddingModel,
			Text:        ai.DefaultTextModel,
			Temperature: 0,
			TopP:        float64Ptr(ai.DefaultTopP),
			MaxTokens:   ai.DefaultMaxTokens,
		},
		Ingest: IngestConfig{EmbedWorkers: 1, IngestWorkers: 1},
		Paths:  PathsConfig{PDF: DefaultPDFPath, Pages: DefaultPagesPath},
		Ask:    AskConfig{Question: rag.DefaultQuestion, TopK: rag.DefaultTopK},
	}
	return cfg
}

// Load reads a config from path. If the file does not exist, returns defaults.
// Keys missing from the file keep their default values. The top-level region
// always applies to the domain.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyConfigDefaults(cfg *Config) {
	def := Default()

	if cfg.Region == "" {
		cfg.Region = def.Region
	}
	cfg.Domain.Region = cfg.Region
	if cfg.StateDir == "" {
		cfg.StateDir = def.StateDir
	}

	d := &cfg.Domain
	if d.DomainName == "" {
		d.DomainName = def.Domain.DomainName
	}
	if d.EngineVersion == "" {
		d.EngineVersion = def.Domain.EngineVersion
	}
	if d.InstanceType == "" {
		d.InstanceType = def.Domain.InstanceType
	}
	if d.InstanceCount == 0 {
		d.InstanceCount = def.Domain.InstanceCount
	}
	if d.VolumeSize == 0 {
		d.VolumeSize = def.Domain.VolumeSize
	}
	if d.VolumeType == "" {
		d.VolumeType = def.Domain.VolumeType
	}
	if d.TLSPolicy == "" {
		d.TLSPolicy = def.Domain.TLSPolicy
	}
	if d.MasterUserName == "" {
		d.MasterUserName = def.Domain.MasterUserName
	}

	ix := &cfg.Index
	if ix.Name == "" {
		ix.Name = def.Index.Name
	}
	if ix.Settings.Shards == 0 {
		ix.Settings.Shards = def.Index.Settings.Shards
	}
	if ix.Settings.SpaceType == "" {
		ix.Settings.SpaceType = def.Index.Settings.SpaceType
	}
	if ix.Settings.Dimension == 0 {
		ix.Settings.Dimension = def.Index.Settings.Dimension
	}
	if ix.Port == 0 {
		ix.Port = def.Index.Port
	}
	if ix.TimeoutSecs == 0 {
		ix.TimeoutSecs = def.Index.TimeoutSecs
	}
	if ix.SampleSize == 0 {
		ix.SampleSize = def.Index.SampleSize
	}

	m := &cfg.Models
	if m.Embedding == "" {
		m.Embedding = def.Models.Embedding
	}
	if m.Text == "" {
		m.Text = def.Models.Text
	}
	if m.TopP == nil {
		m.TopP = def.Models.TopP
	}
	if m.MaxTokens == 0 {
		m.MaxTokens = def.Models.MaxTokens
	}

	if cfg.Ingest.EmbedWorkers == 0 {
		cfg.Ingest.EmbedWorkers = def.Ingest.EmbedWorkers
	}
	if cfg.Ingest.IngestWorkers == 0 {
		cfg.Ingest.IngestWorkers = def.Ingest.IngestWorkers
	}

	if cfg.Paths.PDF == "" {
		cfg.Paths.PDF = def.Paths.PDF
	}
	if cfg.Paths.Pages == "" {
		cfg.Paths.Pages = def.Paths.Pages
	}

	if cfg.Ask.Question == "" {
		cfg.Ask.Question = def.Ask.Question
	}
	if cfg.Ask.TopK == 0 {
		cfg.Ask.TopK = def.Ask.TopK
	}
}

// SetRegion points the domain and the model runtime at region.
func (c *Config) SetRegion(region string) {
	region = strings.TrimSpace(region)
	if region == "" {
		return
	}
	c.Region = region
	c.Domain.Region = region
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("%w: region is required", ErrInvalidConfig)
	}
	if c.Domain.Region != c.Region {
		return fmt.Errorf("%w: domain region %q does not match region %q", ErrInvalidConfig, c.Domain.Region, c.Region)
	}
	if c.StateDir == "" {
		return fmt.Errorf("%w: state_dir is required", ErrInvalidConfig)
	}
	if err := c.Domain.Validate(); err != nil {
		return err
	}
	if err := core.ValidateIndexName(c.Index.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Index.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Index.Port < 1 || c.Index.Port > 65535 {
		return fmt.Errorf("%w: index port %d out of range", ErrInvalidConfig, c.Index.Port)
	}
	if c.Index.TimeoutSecs < 1 {
		return fmt.Errorf("%w: index timeout_secs must be at least 1", ErrInvalidConfig)
	}
	if c.Index.MaxRetries < 0 {
		return fmt.Errorf("%w: index max_retries must not be negative", ErrInvalidConfig)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Ingest.EmbedWorkers < 1 || c.Ingest.IngestWorkers < 1 {
		return fmt.Errorf("%w: worker counts must be at least 1", ErrInvalidConfig)
	}
	if c.Ingest.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Ask.TopK < 1 {
		return fmt.Errorf("%w: ask top_k must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// AIConfig returns the model settings as an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithRegion(c.Region),
		ai.WithEmbeddingModel(c.Models.Embedding),
		ai.WithTextModel(c.Models.Text),
		ai.WithTemperature(c.Models.Temperature),
		ai.WithTopP(c.Models.EffectiveTopP()),
		ai.WithMaxTokens(c.Models.MaxTokens),
	)
}

// ClientConfig returns the index client settings for a domain endpoint.
func (c *Config) ClientConfig(endpoint, password string) index.ClientConfig {
	cfg := index.DefaultClientConfig()
	cfg.Endpoint = endpoint
	cfg.Port = c.Index.Port
	cfg.Username = c.Domain.MasterUserName
	cfg.Password = password
	cfg.Timeout = time.Duration(c.Index.TimeoutSecs) * time.Second
	cfg.MaxRetries = c.Index.MaxRetries
	cfg.RetryOnTimeout = c.Index.RetryOnTimeout
	return cfg
}

// StatePath is the Badger directory holding the local domain state.
func (c *Config) StatePath() string {
	return filepath.Join(c.StateDir, "state")
}

func float64Ptr(v float64) *float64 {
	return &v
}
