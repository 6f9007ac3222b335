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

package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DomainEndpoint returns the public endpoint host of a search domain.
// A domain that is still being created, or that is reachable only inside a
// VPC, has no public endpoint and yields ErrEndpointUnavailable.
func DomainEndpoint(ctx context.Context, api DomainDescriber, domain string) (string, error) {
	out, err := api.DescribeDomain(ctx, &opensearch.DescribeDomainInput{
		DomainName: aws.String(domain),
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe domain %s: %w", domain, err)
	}
	if out.DomainStatus == nil {
		return "", fmt.Errorf("%w: %s", ErrEndpointUnavailable, domain)
	}

	endpoint := aws.ToString(out.DomainStatus.Endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("%w: %s", ErrEndpointUnavailable, domain)
	}
	return endpoint, nil
}

// Identity describes the account the credentials belong to.
type Identity struct {
	Account   string
	ARN       string
	Partition string
}

// CallerIdentity resolves the account and partition of the current credentials.
func CallerIdentity(ctx context.Context, api IdentityAPI) (Identity, error) {
	out, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to get caller identity: %w", err)
	}

	id := Identity{
		Account:   aws.ToString(out.Account),
		ARN:       aws.ToString(out.Arn),
		Partition: "aws",
	}
	if parsed, err := arn.Parse(id.ARN); err == nil {
		id.Partition = parsed.Partition
	}
	return id, nil
}
