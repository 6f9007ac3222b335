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

package provision

import (
	"log/slog"
	"time"

	"github.com/poiesic/searchrag/cloud"
	"github.com/poiesic/searchrag/storage"
)

const (
	DefaultPollInterval = 30 * time.Second
	DefaultWaitTimeout  = 60 * time.Minute
)

// Provisioner reconciles one search domain and its master credential with a
// DomainConfig, recording what it applied in a state repository.
type Provisioner struct {
	config       DomainConfig
	clients      *cloud.Clients
	states       storage.StateRepository
	wait         bool
	pollInterval time.Duration
	waitTimeout  time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithoutWait makes apply and destroy return as soon as AWS accepts the request.
func WithoutWait() Option {
	return func(p *Provisioner) {
		p.wait = false
	}
}

// WithPollInterval sets how often the domain status is polled while waiting.
func WithPollInterval(d time.Duration) Option {
	return func(p *Provisioner) {
		p.pollInterval = d
	}
}

// WithWaitTimeout caps how long apply and destroy wait for the domain.
func WithWaitTimeout(d time.Duration) Option {
	return func(p *Provisioner) {
		p.waitTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

// WithClock replaces time.Now for recorded timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) {
		p.now = now
	}
}

// NewProvisioner validates cfg and creates a Provisioner.
func NewProvisioner(cfg DomainConfig, clients *cloud.Clients, states storage.StateRepository, opts ...Option) (*Provisioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provisioner{
		config:       cfg,
		clients:      clients,
		states:       states,
		wait:         true,
		pollInterval: DefaultPollInterval,
		waitTimeout:  DefaultWaitTimeout,
		now:          time.Now,
		logger:       slog.Default().With("component", "provisioner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.pollInterval <= 0 {
		p.pollInterval = DefaultPollInterval
	}
	if p.waitTimeout <= 0 {
		p.waitTimeout = DefaultWaitTimeout
	}
	return p, nil
}

// Config returns the desired configuration.
func (p *Provisioner) Config() DomainConfig {
	return p.config
}
