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
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/poiesic/searchrag/cloud"
	"github.com/poiesic/searchrag/core"
)

// Apply carries out a plan: the secret first, then the domain, then the
// local state. It returns the resulting outputs.
func (p *Provisioner) Apply(ctx context.Context, plan *Plan) (*Outputs, error) {
	cfg := p.config
	digest, err := cfg.Digest()
	if err != nil {
		return nil, err
	}
	if plan.Digest != digest {
		return nil, ErrPlanMismatch
	}

	secretName := cfg.EffectiveSecretName()
	secretARN, password, err := p.applySecret(ctx, plan, secretName)
	if err != nil {
		return nil, err
	}

	sections := plan.domainSections()
	_, creating := plan.Find(ResourceDomain, ActionCreate)
	_, updating := plan.Find(ResourceDomain, ActionUpdate)
	upgrade, upgrading := plan.Find(ResourceDomain, ActionUpgrade)

	needsPassword := cfg.UsesMasterPassword() && (creating || sections[sectionSecurity])
	if needsPassword && password == "" {
		password, err = cloud.GetSecret(ctx, p.clients.Secrets, secretName)
		if err != nil {
			return nil, err
		}
	}

	var status *ostypes.DomainStatus
	switch {
	case creating:
		p.logger.Info("creating domain", "domain", cfg.DomainName, "engine", cfg.EngineVersion)
		out, err := p.clients.Domains.CreateDomain(ctx, cfg.createDomainInput(plan.Policy, password))
		if err != nil {
			return nil, fmt.Errorf("failed to create domain %s: %w", cfg.DomainName, err)
		}
		status = out.DomainStatus
		if status, err = p.settle(ctx, status); err != nil {
			return nil, err
		}
	case updating:
		p.logger.Info("updating domain", "domain", cfg.DomainName, "sections", len(sections))
		if _, err := p.clients.Domains.UpdateDomainConfig(ctx, cfg.updateDomainInput(sections, plan.Policy, password)); err != nil {
			return nil, fmt.Errorf("failed to update domain %s: %w", cfg.DomainName, err)
		}
		if upgrading {
			// An upgrade is rejected while a configuration change is processing,
			// so this wait happens even without waiting enabled.
			status, err = p.waitForDomain(ctx)
		} else {
			status, err = p.settle(ctx, nil)
		}
		if err != nil {
			return nil, err
		}
	}

	if upgrading {
		target := upgrade.Diffs[0].To
		p.logger.Info("upgrading domain", "domain", cfg.DomainName, "from", upgrade.Diffs[0].From, "to", target)
		if _, err := p.clients.Domains.UpgradeDomain(ctx, upgradeInput(cfg.DomainName, target)); err != nil {
			return nil, fmt.Errorf("failed to upgrade domain %s: %w", cfg.DomainName, err)
		}
		if status, err = p.settle(ctx, nil); err != nil {
			return nil, err
		}
	}

	if status == nil {
		if status, err = p.describeDomain(ctx); err != nil {
			return nil, err
		}
	}

	state := &core.DomainState{
		DomainName:   cfg.DomainName,
		Region:       cfg.Region,
		SecretName:   secretName,
		SecretARN:    secretARN,
		ConfigDigest: plan.Digest,
		AppliedAt:    p.now().UTC(),
	}
	if status != nil {
		state.DomainARN = aws.ToString(status.ARN)
		state.Endpoint = aws.ToString(status.Endpoint)
		state.EngineVersion = aws.ToString(status.EngineVersion)
	}
	if err := p.states.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	p.logger.Info("apply complete", "domain", cfg.DomainName, "endpoint", state.Endpoint)
	return newOutputs(cfg.DomainName, state.DomainARN, state.Endpoint, secretName), nil
}

// settle waits for the domain when waiting is enabled, and otherwise returns
// the status it was given.
func (p *Provisioner) settle(ctx context.Context, status *ostypes.DomainStatus) (*ostypes.DomainStatus, error) {
	if !p.wait {
		return status, nil
	}
	return p.waitForDomain(ctx)
}

// applySecret creates or restores the master credential when planned.
// It returns the secret ARN and, when a new password was generated, the password.
func (p *Provisioner) applySecret(ctx context.Context, plan *Plan, name string) (string, string, error) {
	switch plan.secretAction() {
	case ActionCreate:
		return p.createSecret(ctx, name)
	case ActionRestore:
		p.logger.Info("restoring secret scheduled for deletion", "secret", name)
		out, err := p.clients.Secrets.RestoreSecret(ctx, &secretsmanager.RestoreSecretInput{
			SecretId: aws.String(name),
		})
		if err != nil {
			return "", "", fmt.Errorf("failed to restore secret %s: %w", name, err)
		}
		return aws.ToString(out.ARN), "", nil
	default:
		return plan.secretARN, "", nil
	}
}

func (p *Provisioner) createSecret(ctx context.Context, name string) (string, string, error) {
	cfg := p.config
	password, err := generatePassword(ctx, p.clients.Secrets)
	if err != nil {
		return "", "", err
	}

	p.logger.Info("creating secret", "secret", name)
	out, err := p.clients.Secrets.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:               aws.String(name),
		Description:        aws.String(fmt.Sprintf("Master user password for OpenSearch domain %s", cfg.DomainName)),
		SecretString:       aws.String(password),
		ClientRequestToken: aws.String(secretRequestToken(cfg.Region, cfg.DomainName, name)),
		Tags:               secretTags(cfg.Tags),
	})
	if err != nil {
		if cloud.IsSecretExists(err) {
			p.logger.Warn("secret already exists, reusing it", "secret", name)
			described, descErr := p.clients.Secrets.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
				SecretId: aws.String(name),
			})
			if descErr != nil {
				return "", "", fmt.Errorf("failed to describe secret %s: %w", name, descErr)
			}
			existing, getErr := cloud.GetSecret(ctx, p.clients.Secrets, name)
			if getErr != nil {
				return "", "", getErr
			}
			return aws.ToString(described.ARN), existing, nil
		}
		return "", "", fmt.Errorf("failed to create secret %s: %w", name, err)
	}
	return aws.ToString(out.ARN), password, nil
}

func (p *Plan) secretAction() Action {
	for _, c := range p.Changes {
		if c.Resource == ResourceSecret {
			return c.Action
		}
	}
	return ActionNoOp
}

func secretTags(tags map[string]string) []smtypes.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]smtypes.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, smtypes.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}
