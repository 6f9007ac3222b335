package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// LoadConfig resolves AWS credentials from the default chain (environment,
// shared profile, instance role). A non-empty region overrides the profile's.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		return aws.Config{}, ErrRegionRequired
	}

	slog.Default().With("component", "cloud").Debug("loaded AWS config", "region", cfg.Region)
	return cfg, nil
}

// NewClients creates the OpenSearch Service, Secrets Manager and STS clients.
func NewClients(cfg aws.Config) *Clients {
	return &Clients{
		Domains:  opensearch.NewFromConfig(cfg),
		Secrets:  secretsmanager.NewFromConfig(cfg),
		Identity: sts.NewFromConfig(cfg),
	}
}
