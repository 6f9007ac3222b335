package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
)

// waitForDomain polls until the domain has finished processing and has an endpoint.
func (p *Provisioner) waitForDomain(ctx context.Context) (*ostypes.DomainStatus, error) {
	return p.poll(ctx, "ready", func(status *ostypes.DomainStatus) bool {
		return status != nil &&
			!aws.ToBool(status.Processing) &&
			!aws.ToBool(status.UpgradeProcessing) &&
			aws.ToString(status.Endpoint) != ""
	})
}

// waitForDeletion polls until the domain no longer exists.
func (p *Provisioner) waitForDeletion(ctx context.Context) error {
	_, err := p.poll(ctx, "deleted", func(status *ostypes.DomainStatus) bool {
		return status == nil
	})
	return err
}

func (p *Provisioner) poll(ctx context.Context, goal string, done func(*ostypes.DomainStatus) bool) (*ostypes.DomainStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.waitTimeout)
	defer cancel()

	start := time.Now()
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		status, err := p.describeDomain(ctx)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s not %s after %s", ErrWaitTimeout, p.config.DomainName, goal, p.waitTimeout)
			}
			return nil, err
		}
		if done(status) {
			p.logger.Info("domain "+goal, "domain", p.config.DomainName, "elapsed", time.Since(start).Round(time.Second))
			return status, nil
		}

		p.logger.Info("waiting for domain", "domain", p.config.DomainName, "goal", goal,
			"elapsed", time.Since(start).Round(time.Second))

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s not %s after %s", ErrWaitTimeout, p.config.DomainName, goal, p.waitTimeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
