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

// Package searchrag wires the configuration, AWS clients, local state, AI
// provider and index client into one Stack.
package searchrag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/poiesic/searchrag/ai"
	"github.com/poiesic/searchrag/ai/bedrock"
	"github.com/poiesic/searchrag/cloud"
	"github.com/poiesic/searchrag/config"
	"github.com/poiesic/searchrag/index"
	"github.com/poiesic/searchrag/ingestion"
	"github.com/poiesic/searchrag/provision"
	"github.com/poiesic/searchrag/rag"
	"github.com/poiesic/searchrag/storage"
	"github.com/poiesic/searchrag/storage/badger"
)

type Stack struct {
	cfg      *config.Config
	clients  *cloud.Clients
	backend  *badger.Backend
	states   *badger.StateRepository
	logger   *slog.Logger
	tuneIdx  func(*index.ClientConfig)
	mu       sync.Mutex
	awsCfg   *aws.Config
	provider ai.Provider
}

// Option configures a Stack.
type Option func(*stackOptions)

type stackOptions struct {
	clients   *cloud.Clients
	awsCfg    *aws.Config
	provider  ai.Provider
	inMemory  bool
	logger    *slog.Logger
	tuneIndex func(*index.ClientConfig)
}

// WithClients uses the given AWS clients instead of loading credentials.
func WithClients(clients *cloud.Clients) Option {
	return func(o *stackOptions) {
		o.clients = clients
	}
}

// WithAWSConfig uses an already loaded AWS configuration.
func WithAWSConfig(cfg aws.Config) Option {
	return func(o *stackOptions) {
		o.awsCfg = &cfg
	}
}

// WithAIProvider uses provider instead of creating a Bedrock provider.
func WithAIProvider(provider ai.Provider) Option {
	return func(o *stackOptions) {
		o.provider = provider
	}
}

// WithInMemoryState keeps the domain state in memory only.
func WithInMemoryState() Option {
	return func(o *stackOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *stackOptions) {
		o.logger = logger
	}
}

// WithIndexConfig adjusts the index client configuration before each client is built.
func WithIndexConfig(fn func(*index.ClientConfig)) Option {
	return func(o *stackOptions) {
		o.tuneIndex = fn
	}
}

// Open validates cfg, resolves AWS clients and opens the local state store.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Stack, error) {
	options := &stackOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clients := options.clients
	awsCfg := options.awsCfg
	if clients == nil {
		if awsCfg == nil {
			loaded, err := cloud.LoadConfig(ctx, cfg.Region)
			if err != nil {
				return nil, err
			}
			awsCfg = &loaded
		}
		clients = cloud.NewClients(*awsCfg)
	}

	backend, err := badger.OpenBackend(cfg.StatePath(), options.inMemory)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	return &Stack{
		cfg:      cfg,
		clients:  clients,
		backend:  backend,
		states:   badger.NewStateRepository(backend),
		logger:   options.logger,
		tuneIdx:  options.tuneIndex,
		awsCfg:   awsCfg,
		provider: options.provider,
	}, nil
}

// Close releases the AI provider and the state store.
func (s *Stack) Close() error {
	var errs []error

	s.mu.Lock()
	provider := s.provider
	s.mu.Unlock()
	if provider != nil {
		if err := provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing state store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Stack) Config() *config.Config {
	return s.cfg
}

func (s *Stack) Clients() *cloud.Clients {
	return s.clients
}

func (s *Stack) StateRepository() storage.StateRepository {
	return s.states
}

// Provisioner returns a provisioner for the configured domain.
func (s *Stack) Provisioner(opts ...provision.Option) (*provision.Provisioner, error) {
	opts = append([]provision.Option{provision.WithLogger(s.logger)}, opts...)
	return provision.NewProvisioner(s.cfg.Domain, s.clients, s.states, opts...)
}

// Endpoint returns the public endpoint host of the configured domain.
func (s *Stack) Endpoint(ctx context.Context) (string, error) {
	return cloud.DomainEndpoint(ctx, s.clients.Domains, s.cfg.Domain.DomainName)
}

// Secret returns the master credential secret's name and value. The name
// recorded by apply is tried first, then the configured secret name. Only
// when neither exists is the first secret containing the domain name used.
func (s *Stack) Secret(ctx context.Context) (string, string, error) {
	recorded := ""
	state, err := s.states.LoadState(ctx, s.cfg.Domain.DomainName)
	if err != nil {
		return "", "", err
	}
	if state != nil {
		recorded = state.SecretName
	}
	return cloud.ResolveSecret(ctx, s.clients.Secrets, s.cfg.Domain.DomainName,
		recorded, s.cfg.Domain.EffectiveSecretName())
}

// IndexClient connects to the domain as the master user.
func (s *Stack) IndexClient(ctx context.Context) (*index.Client, error) {
	endpoint, err := s.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	_, password, err := s.Secret(ctx)
	if err != nil {
		return nil, err
	}

	cc := s.cfg.ClientConfig(endpoint, password)
	if s.tuneIdx != nil {
		s.tuneIdx(&cc)
	}
	return index.NewClient(cc, index.WithLogger(s.logger.With("component", "index")))
}

// AIProvider returns the Bedrock provider, creating it on first use.
func (s *Stack) AIProvider(ctx context.Context) (ai.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider != nil {
		return s.provider, nil
	}
	if s.awsCfg == nil {
		loaded, err := cloud.LoadConfig(ctx, s.cfg.Region)
		if err != nil {
			return nil, err
		}
		s.awsCfg = &loaded
	}

	provider, err := bedrock.NewProvider(*s.awsCfg, s.cfg.AIConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	s.provider = provider
	return provider, nil
}

// VectorStore returns the named index as a vector store using the provider's embedder.
func (s *Stack) VectorStore(ctx context.Context, indexName string) (*index.Store, error) {
	client, err := s.IndexClient(ctx)
	if err != nil {
		return nil, err
	}
	provider, err := s.AIProvider(ctx)
	if err != nil {
		return nil, err
	}
	return index.NewStore(client, provider.Embedder(), indexName)
}

// PageEmbedder returns an ingestion embedder over the provider's embedder.
// Vectors must match the configured index dimension.
func (s *Stack) PageEmbedder(ctx context.Context, opts ...ingestion.Option) (*ingestion.Embedder, error) {
	provider, err := s.AIProvider(ctx)
	if err != nil {
		return nil, err
	}
	opts = append([]ingestion.Option{
		ingestion.WithDimension(s.cfg.Index.Settings.Dimension),
		ingestion.WithLogger(s.logger.With("component", "ingestion")),
	}, opts...)
	return ingestion.NewEmbedder(provider.Embedder(), opts...)
}

// Ingester returns an ingester writing through indexer. Pages whose vectors
// do not match the configured index dimension are rejected before indexing.
func (s *Stack) Ingester(indexer ingestion.DocumentIndexer, opts ...ingestion.Option) (*ingestion.Ingester, error) {
	opts = append([]ingestion.Option{
		ingestion.WithDimension(s.cfg.Index.Settings.Dimension),
		ingestion.WithLogger(s.logger.With("component", "ingestion")),
	}, opts...)
	return ingestion.NewIngester(indexer, opts...)
}

// Asker returns a question answerer over the k nearest pages of the named index.
func (s *Stack) Asker(ctx context.Context, indexName string, k int) (*rag.Asker, error) {
	store, err := s.VectorStore(ctx, indexName)
	if err != nil {
		return nil, err
	}
	provider, err := s.AIProvider(ctx)
	if err != nil {
		return nil, err
	}
	return rag.NewAsker(provider.Model(), rag.NewRetriever(store, k),
		rag.WithSampling(s.cfg.AIConfig()),
		rag.WithLogger(s.logger.With("component", "rag")),
	)
}
