package cloudtest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/poiesic/searchrag/cloud"
)

type fakeSecret struct {
	arn     string
	value   string
	token   string
	deleted *time.Time
	tags    []smtypes.Tag
}

// FakeSecrets is an in-memory cloud.SecretsAPI.
type FakeSecrets struct {
	// PageSize limits how many entries one ListSecrets page returns.
	PageSize int

	// Errors injects a failure per operation name, e.g. "CreateSecret".
	Errors map[string]error

	mu              sync.Mutex
	secrets         map[string]*fakeSecret
	calls           []string
	passwordRequest *secretsmanager.GetRandomPasswordInput
}

var _ cloud.SecretsAPI = (*FakeSecrets)(nil)

// NewFakeSecrets creates an empty fake.
func NewFakeSecrets() *FakeSecrets {
	return &FakeSecrets{
		PageSize: 100,
		Errors:   map[string]error{},
		secrets:  map[string]*fakeSecret{},
	}
}

// Put seeds a secret directly.
func (f *FakeSecrets) Put(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[name] = &fakeSecret{arn: secretARN(name), value: value}
}

// Value returns a stored secret value and whether it exists and is not scheduled for deletion.
func (f *FakeSecrets) Value(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.secrets[name]
	if !ok || s.deleted != nil {
		return "", false
	}
	return s.value, true
}

// Tags returns the tags a secret was created with.
func (f *FakeSecrets) Tags(name string) []smtypes.Tag {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.secrets[name]; ok {
		return s.tags
	}
	return nil
}

// Exists reports whether a secret is stored at all, including one pending deletion.
func (f *FakeSecrets) Exists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.secrets[name]
	return ok
}

// PasswordRequest returns the last GetRandomPassword input.
func (f *FakeSecrets) PasswordRequest() *secretsmanager.GetRandomPasswordInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passwordRequest
}

// Calls returns the operation names invoked so far, in order.
func (f *FakeSecrets) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeSecrets) record(op string) error {
	f.calls = append(f.calls, op)
	return f.Errors[op]
}

func secretARN(name string) string {
	return fmt.Sprintf("arn:aws:secretsmanager:eu-central-1:123456789012:secret:%s-AbCdEf", name)
}

func secretNotFound(name string) error {
	return &smtypes.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret: " + name)}
}

func (f *FakeSecrets) ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListSecrets"); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.secrets))
	for name, s := range f.secrets {
		if s.deleted == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	start := 0
	if params.NextToken != nil {
		n, err := strconv.Atoi(*params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("bad token %q", *params.NextToken)
		}
		start = n
	}
	end := start + f.PageSize
	if end > len(names) {
		end = len(names)
	}

	out := &secretsmanager.ListSecretsOutput{}
	for _, name := range names[start:end] {
		out.SecretList = append(out.SecretList, smtypes.SecretListEntry{
			Name: aws.String(name),
			ARN:  aws.String(f.secrets[name].arn),
		})
	}
	if end < len(names) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *FakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetSecretValue"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.SecretId)
	s, ok := f.secrets[name]
	if !ok || s.deleted != nil {
		return nil, secretNotFound(name)
	}
	return &secretsmanager.GetSecretValueOutput{
		Name:         aws.String(name),
		ARN:          aws.String(s.arn),
		SecretString: aws.String(s.value),
	}, nil
}

func (f *FakeSecrets) DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeSecret"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.SecretId)
	s, ok := f.secrets[name]
	if !ok {
		return nil, secretNotFound(name)
	}
	return &secretsmanager.DescribeSecretOutput{
		Name:        aws.String(name),
		ARN:         aws.String(s.arn),
		DeletedDate: s.deleted,
	}, nil
}

func (f *FakeSecrets) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateSecret"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.Name)
	token := aws.ToString(params.ClientRequestToken)
	if existing, ok := f.secrets[name]; ok {
		if token != "" && existing.token == token {
			return &secretsmanager.CreateSecretOutput{Name: aws.String(name), ARN: aws.String(existing.arn)}, nil
		}
		return nil, &smtypes.ResourceExistsException{Message: aws.String("secret already exists: " + name)}
	}

	s := &fakeSecret{
		arn:   secretARN(name),
		value: aws.ToString(params.SecretString),
		token: token,
		tags:  params.Tags,
	}
	f.secrets[name] = s
	return &secretsmanager.CreateSecretOutput{Name: aws.String(name), ARN: aws.String(s.arn)}, nil
}

func (f *FakeSecrets) DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteSecret"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.SecretId)
	s, ok := f.secrets[name]
	if !ok {
		return nil, secretNotFound(name)
	}

	now := time.Now()
	if aws.ToBool(params.ForceDeleteWithoutRecovery) {
		delete(f.secrets, name)
	} else {
		days := aws.ToInt64(params.RecoveryWindowInDays)
		if days == 0 {
			days = 30
		}
		deletion := now.Add(time.Duration(days) * 24 * time.Hour)
		s.deleted = &deletion
	}
	return &secretsmanager.DeleteSecretOutput{
		Name:         aws.String(name),
		ARN:          aws.String(s.arn),
		DeletionDate: &now,
	}, nil
}

func (f *FakeSecrets) RestoreSecret(ctx context.Context, params *secretsmanager.RestoreSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.RestoreSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RestoreSecret"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.SecretId)
	s, ok := f.secrets[name]
	if !ok {
		return nil, secretNotFound(name)
	}
	s.deleted = nil
	return &secretsmanager.RestoreSecretOutput{Name: aws.String(name), ARN: aws.String(s.arn)}, nil
}

// GetRandomPassword returns a repeatable password of the requested length
// built from characters not excluded by the request.
func (f *FakeSecrets) GetRandomPassword(ctx context.Context, params *secretsmanager.GetRandomPasswordInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetRandomPasswordOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetRandomPassword"); err != nil {
		return nil, err
	}
	f.passwordRequest = params

	length := int(aws.ToInt64(params.PasswordLength))
	if length == 0 {
		length = 32
	}
	alphabet := "Aa1!Bb2#Cc3$Dd4%"
	excluded := aws.ToString(params.ExcludeCharacters)

	var b strings.Builder
	for i := 0; b.Len() < length; i++ {
		c := alphabet[i%len(alphabet)]
		if strings.IndexByte(excluded, c) >= 0 {
			continue
		}
		b.WriteByte(c)
	}
	return &secretsmanager.GetRandomPasswordOutput{RandomPassword: aws.String(b.String())}, nil
}

// FakeIdentity is a fixed cloud.IdentityAPI.
type FakeIdentity struct {
	Account string
	ARN     string
	Err     error
}

var _ cloud.IdentityAPI = (*FakeIdentity)(nil)

// NewFakeIdentity returns an identity in the commercial partition.
func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		Account: "123456789012",
		ARN:     "arn:aws:iam::123456789012:user/deployer",
	}
}

func (f *FakeIdentity) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.Account),
		Arn:     aws.String(f.ARN),
		UserId:  aws.String("AIDAEXAMPLE"),
	}, nil
}

// NewClients bundles fresh fakes into cloud.Clients.
func NewClients() (*cloud.Clients, *FakeDomains, *FakeSecrets, *FakeIdentity) {
	domains := NewFakeDomains()
	secrets := NewFakeSecrets()
	identity := NewFakeIdentity()
	return &cloud.Clients{Domains: domains, Secrets: secrets, Identity: identity}, domains, secrets, identity
}
