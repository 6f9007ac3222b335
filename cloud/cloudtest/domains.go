// Package cloudtest provides in-memory fakes of the AWS control-plane clients
// for use in tests.
package cloudtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
	"github.com/poiesic/searchrag/cloud"
)

// FakeDomains is an in-memory cloud.DomainAPI.
type FakeDomains struct {
	// Region and Account are used to build ARNs and endpoints.
	Region  string
	Account string

	// ReadyAfter is the number of DescribeDomain calls a created or updated
	// domain reports Processing before it settles.
	ReadyAfter int

	// Errors injects a failure per operation name, e.g. "CreateDomain".
	Errors map[string]error

	mu      sync.Mutex
	domains map[string]*ostypes.DomainStatus
	pending map[string]int
	masters map[string]*ostypes.MasterUserOptions
	calls   []string
}

var _ cloud.DomainAPI = (*FakeDomains)(nil)

// NewFakeDomains creates an empty fake in region eu-central-1.
func NewFakeDomains() *FakeDomains {
	return &FakeDomains{
		Region:  "eu-central-1",
		Account: "123456789012",
		Errors:  map[string]error{},
		domains: map[string]*ostypes.DomainStatus{},
		pending: map[string]int{},
		masters: map[string]*ostypes.MasterUserOptions{},
	}
}

// Put seeds a domain directly.
func (f *FakeDomains) Put(status *ostypes.DomainStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.domains[aws.ToString(status.DomainName)] = status
}

// Get returns the stored status of a domain, or nil.
func (f *FakeDomains) Get(name string) *ostypes.DomainStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.domains[name]
}

// MasterUser returns the master user options last sent for a domain.
func (f *FakeDomains) MasterUser(name string) *ostypes.MasterUserOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.masters[name]
}

// Calls returns the operation names invoked so far, in order.
func (f *FakeDomains) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeDomains) record(op string) error {
	f.calls = append(f.calls, op)
	return f.Errors[op]
}

func notFound(name string) error {
	return &ostypes.ResourceNotFoundException{Message: aws.String(fmt.Sprintf("Domain not found: %s", name))}
}

// Endpoint is the endpoint host the fake assigns to a domain.
func (f *FakeDomains) Endpoint(name string) string {
	return fmt.Sprintf("search-%s-fake.%s.es.amazonaws.com", name, f.Region)
}

func (f *FakeDomains) DescribeDomain(ctx context.Context, params *opensearch.DescribeDomainInput, optFns ...func(*opensearch.Options)) (*opensearch.DescribeDomainOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeDomain"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.DomainName)
	status, ok := f.domains[name]
	if !ok {
		return nil, notFound(name)
	}

	if remaining, ok := f.pending[name]; ok {
		if remaining <= 0 {
			delete(f.pending, name)
			status.Processing = aws.Bool(false)
			status.UpgradeProcessing = aws.Bool(false)
			status.Endpoint = aws.String(f.Endpoint(name))
		} else {
			f.pending[name] = remaining - 1
		}
	}

	copied := *status
	return &opensearch.DescribeDomainOutput{DomainStatus: &copied}, nil
}

func (f *FakeDomains) settle(name string, status *ostypes.DomainStatus) {
	if f.ReadyAfter > 0 {
		status.Processing = aws.Bool(true)
		f.pending[name] = f.ReadyAfter
		return
	}
	status.Processing = aws.Bool(false)
	status.Endpoint = aws.String(f.Endpoint(name))
}

func (f *FakeDomains) CreateDomain(ctx context.Context, params *opensearch.CreateDomainInput, optFns ...func(*opensearch.Options)) (*opensearch.CreateDomainOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateDomain"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.DomainName)
	if _, exists := f.domains[name]; exists {
		return nil, &ostypes.ResourceAlreadyExistsException{Message: aws.String("domain already exists")}
	}

	status := &ostypes.DomainStatus{
		ARN:                         aws.String(fmt.Sprintf("arn:aws:es:%s:%s:domain/%s", f.Region, f.Account, name)),
		DomainId:                    aws.String(f.Account + "/" + name),
		DomainName:                  aws.String(name),
		EngineVersion:               params.EngineVersion,
		ClusterConfig:               params.ClusterConfig,
		EBSOptions:                  params.EBSOptions,
		AccessPolicies:              params.AccessPolicies,
		EncryptionAtRestOptions:     params.EncryptionAtRestOptions,
		NodeToNodeEncryptionOptions: params.NodeToNodeEncryptionOptions,
		DomainEndpointOptions:       params.DomainEndpointOptions,
		AdvancedSecurityOptions:     securityStatus(params.AdvancedSecurityOptions),
		Created:                     aws.Bool(true),
		Deleted:                     aws.Bool(false),
	}
	f.rememberMaster(name, params.AdvancedSecurityOptions)
	f.settle(name, status)
	f.domains[name] = status

	copied := *status
	return &opensearch.CreateDomainOutput{DomainStatus: &copied}, nil
}

func (f *FakeDomains) UpdateDomainConfig(ctx context.Context, params *opensearch.UpdateDomainConfigInput, optFns ...func(*opensearch.Options)) (*opensearch.UpdateDomainConfigOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateDomainConfig"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.DomainName)
	status, ok := f.domains[name]
	if !ok {
		return nil, notFound(name)
	}

	if params.ClusterConfig != nil {
		status.ClusterConfig = params.ClusterConfig
	}
	if params.EBSOptions != nil {
		status.EBSOptions = params.EBSOptions
	}
	if params.AccessPolicies != nil {
		status.AccessPolicies = params.AccessPolicies
	}
	if params.EncryptionAtRestOptions != nil {
		status.EncryptionAtRestOptions = params.EncryptionAtRestOptions
	}
	if params.NodeToNodeEncryptionOptions != nil {
		status.NodeToNodeEncryptionOptions = params.NodeToNodeEncryptionOptions
	}
	if params.DomainEndpointOptions != nil {
		status.DomainEndpointOptions = params.DomainEndpointOptions
	}
	if params.AdvancedSecurityOptions != nil {
		status.AdvancedSecurityOptions = securityStatus(params.AdvancedSecurityOptions)
		f.rememberMaster(name, params.AdvancedSecurityOptions)
	}
	f.settle(name, status)

	return &opensearch.UpdateDomainConfigOutput{DomainConfig: &ostypes.DomainConfig{}}, nil
}

func (f *FakeDomains) UpgradeDomain(ctx context.Context, params *opensearch.UpgradeDomainInput, optFns ...func(*opensearch.Options)) (*opensearch.UpgradeDomainOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpgradeDomain"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.DomainName)
	status, ok := f.domains[name]
	if !ok {
		return nil, notFound(name)
	}
	if aws.ToBool(status.Processing) {
		return nil, &ostypes.ValidationException{Message: aws.String("domain is still processing a configuration change")}
	}
	status.EngineVersion = params.TargetVersion
	f.settle(name, status)

	return &opensearch.UpgradeDomainOutput{
		DomainName:    params.DomainName,
		TargetVersion: params.TargetVersion,
	}, nil
}

func (f *FakeDomains) DeleteDomain(ctx context.Context, params *opensearch.DeleteDomainInput, optFns ...func(*opensearch.Options)) (*opensearch.DeleteDomainOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteDomain"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.DomainName)
	status, ok := f.domains[name]
	if !ok {
		return nil, notFound(name)
	}
	delete(f.domains, name)
	delete(f.pending, name)

	status.Deleted = aws.Bool(true)
	return &opensearch.DeleteDomainOutput{DomainStatus: status}, nil
}

func (f *FakeDomains) rememberMaster(name string, in *ostypes.AdvancedSecurityOptionsInput) {
	if in != nil && in.MasterUserOptions != nil {
		f.masters[name] = in.MasterUserOptions
	}
}

func securityStatus(in *ostypes.AdvancedSecurityOptionsInput) *ostypes.AdvancedSecurityOptions {
	if in == nil {
		return nil
	}
	return &ostypes.AdvancedSecurityOptions{
		Enabled:                     in.Enabled,
		InternalUserDatabaseEnabled: in.InternalUserDatabaseEnabled,
	}
}
