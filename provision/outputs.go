package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Outputs are the values other steps need from a provisioned domain.
// The secret's value is never part of them.
type Outputs struct {
	DomainName   string `json:"domain_name"`
	DomainARN    string `json:"domain_arn,omitempty"`
	Endpoint     string `json:"endpoint"`
	EndpointURL  string `json:"endpoint_url"`
	DashboardURL string `json:"dashboard_url"`
	SecretName   string `json:"secret_name"`
}

func newOutputs(domain, arn, endpoint, secret string) *Outputs {
	out := &Outputs{
		DomainName: domain,
		DomainARN:  arn,
		Endpoint:   endpoint,
		SecretName: secret,
	}
	if endpoint != "" {
		out.EndpointURL = "https://" + endpoint
		out.DashboardURL = out.EndpointURL + "/_dashboards"
	}
	return out
}

// Outputs reads the live domain, falling back to local state when the domain
// cannot be described.
func (p *Provisioner) Outputs(ctx context.Context) (*Outputs, error) {
	cfg := p.config
	state, err := p.states.LoadState(ctx, cfg.DomainName)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	secret := cfg.EffectiveSecretName()
	if state != nil && state.SecretName != "" {
		secret = state.SecretName
	}

	status, err := p.describeDomain(ctx)
	if err != nil {
		if state == nil {
			return nil, err
		}
		p.logger.Warn("cannot describe domain, using local state", "domain", cfg.DomainName, "err", err)
		return newOutputs(cfg.DomainName, state.DomainARN, state.Endpoint, secret), nil
	}

	if status == nil {
		if state == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotProvisioned, cfg.DomainName)
		}
		p.logger.Warn("domain not found, using local state", "domain", cfg.DomainName)
		return newOutputs(cfg.DomainName, state.DomainARN, state.Endpoint, secret), nil
	}

	return newOutputs(cfg.DomainName, aws.ToString(status.ARN), aws.ToString(status.Endpoint), secret), nil
}
