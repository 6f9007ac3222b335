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
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/poiesic/searchrag/cloud"
)

const (
	minRecoveryDays = 7
	maxRecoveryDays = 30
)

// DestroyOptions controls how the master credential is removed.
type DestroyOptions struct {
	// ForceDeleteSecret deletes the secret immediately with no recovery window.
	ForceDeleteSecret bool

	// RecoveryDays is the recovery window for the secret, 7 to 30.
	// Zero means 30. Ignored when ForceDeleteSecret is set.
	RecoveryDays int64
}

// DestroyReport says what destroy actually removed.
type DestroyReport struct {
	DomainDeleted bool
	SecretDeleted bool
	SecretName    string
}

// SecretName returns the master credential name recorded by the last apply,
// falling back to the configured name when nothing is recorded.
func (p *Provisioner) SecretName(ctx context.Context) (string, error) {
	state, err := p.states.LoadState(ctx, p.config.DomainName)
	if err != nil {
		return "", fmt.Errorf("failed to load state: %w", err)
	}
	if state != nil && state.SecretName != "" {
		return state.SecretName, nil
	}
	return p.config.EffectiveSecretName(), nil
}

// Destroy deletes the domain and the secret, then forgets the local state.
// Resources that are already gone are not errors.
func (p *Provisioner) Destroy(ctx context.Context, opts DestroyOptions) (*DestroyReport, error) {
	if !opts.ForceDeleteSecret && opts.RecoveryDays != 0 &&
		(opts.RecoveryDays < minRecoveryDays || opts.RecoveryDays > maxRecoveryDays) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRecoveryWindow, opts.RecoveryDays)
	}

	cfg := p.config
	secretName, err := p.SecretName(ctx)
	if err != nil {
		return nil, err
	}
	report := &DestroyReport{SecretName: secretName}

	p.logger.Info("deleting domain", "domain", cfg.DomainName)
	_, err = p.clients.Domains.DeleteDomain(ctx, &opensearch.DeleteDomainInput{
		DomainName: aws.String(cfg.DomainName),
	})
	switch {
	case err == nil:
		report.DomainDeleted = true
		if p.wait {
			if err := p.waitForDeletion(ctx); err != nil {
				return report, err
			}
		}
	case cloud.IsDomainNotFound(err):
		p.logger.Info("domain already gone", "domain", cfg.DomainName)
	default:
		return report, fmt.Errorf("failed to delete domain %s: %w", cfg.DomainName, err)
	}

	in := &secretsmanager.DeleteSecretInput{SecretId: aws.String(report.SecretName)}
	if opts.ForceDeleteSecret {
		in.ForceDeleteWithoutRecovery = aws.Bool(true)
	} else if opts.RecoveryDays != 0 {
		in.RecoveryWindowInDays = aws.Int64(opts.RecoveryDays)
	}

	p.logger.Info("deleting secret", "secret", report.SecretName, "force", opts.ForceDeleteSecret)
	_, err = p.clients.Secrets.DeleteSecret(ctx, in)
	switch {
	case err == nil:
		report.SecretDeleted = true
	case cloud.IsSecretNotFound(err):
		p.logger.Info("secret already gone", "secret", report.SecretName)
	default:
		return report, fmt.Errorf("failed to delete secret %s: %w", report.SecretName, err)
	}

	if err := p.states.DeleteState(ctx, cfg.DomainName); err != nil {
		return report, fmt.Errorf("failed to delete state: %w", err)
	}
	return report, nil
}
