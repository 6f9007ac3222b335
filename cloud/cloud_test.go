package cloud_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
	"github.com/poiesic/searchrag/cloud"
	"github.com/poiesic/searchrag/cloud/cloudtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainEndpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("returns endpoint", func(t *testing.T) {
		domains := cloudtest.NewFakeDomains()
		domains.Put(&ostypes.DomainStatus{
			DomainName: aws.String("rag"),
			Endpoint:   aws.String("search-rag-abc.eu-central-1.es.amazonaws.com"),
		})

		endpoint, err := cloud.DomainEndpoint(ctx, domains, "rag")
		require.NoError(t, err)
		assert.Equal(t, "search-rag-abc.eu-central-1.es.amazonaws.com", endpoint)
	})

	t.Run("no endpoint yet", func(t *testing.T) {
		domains := cloudtest.NewFakeDomains()
		domains.Put(&ostypes.DomainStatus{
			DomainName: aws.String("rag"),
			Processing: aws.Bool(true),
		})

		_, err := cloud.DomainEndpoint(ctx, domains, "rag")
		assert.ErrorIs(t, err, cloud.ErrEndpointUnavailable)
	})

	t.Run("missing domain", func(t *testing.T) {
		domains := cloudtest.NewFakeDomains()

		_, err := cloud.DomainEndpoint(ctx, domains, "rag")
		require.Error(t, err)
		assert.True(t, cloud.IsDomainNotFound(err))
	})
}

func TestCallerIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("commercial partition", func(t *testing.T) {
		id, err := cloud.CallerIdentity(ctx, cloudtest.NewFakeIdentity())
		require.NoError(t, err)
		assert.Equal(t, "123456789012", id.Account)
		assert.Equal(t, "aws", id.Partition)
	})

	t.Run("china partition", func(t *testing.T) {
		fake := cloudtest.NewFakeIdentity()
		fake.ARN = "arn:aws-cn:iam::123456789012:user/deployer"

		id, err := cloud.CallerIdentity(ctx, fake)
		require.NoError(t, err)
		assert.Equal(t, "aws-cn", id.Partition)
	})

	t.Run("error", func(t *testing.T) {
		fake := cloudtest.NewFakeIdentity()
		fake.Err = errors.New("expired token")

		_, err := cloud.CallerIdentity(ctx, fake)
		assert.ErrorContains(t, err, "expired token")
	})
}

func TestFindSecretName(t *testing.T) {
	ctx := context.Background()

	t.Run("first match across pages", func(t *testing.T) {
		secrets := cloudtest.NewFakeSecrets()
		secrets.PageSize = 1
		secrets.Put("alpha", "x")
		secrets.Put("beta", "x")
		secrets.Put("rag-master-credential", "x")
		secrets.Put("zz-rag-other", "x")

		name, err := cloud.FindSecretName(ctx, secrets, "rag")
		require.NoError(t, err)
		assert.Equal(t, "rag-master-credential", name)
	})

	t.Run("no match", func(t *testing.T) {
		secrets := cloudtest.NewFakeSecrets()
		secrets.Put("alpha", "x")

		_, err := cloud.FindSecretName(ctx, secrets, "rag")
		assert.ErrorIs(t, err, cloud.ErrSecretNotFound)
	})

	t.Run("list failure", func(t *testing.T) {
		secrets := cloudtest.NewFakeSecrets()
		secrets.Errors["ListSecrets"] = errors.New("access denied")

		_, err := cloud.FindSecretName(ctx, secrets, "rag")
		assert.ErrorContains(t, err, "access denied")
	})
}

func TestGetSecret(t *testing.T) {
	ctx := context.Background()
	secrets := cloudtest.NewFakeSecrets()
	secrets.Put("rag-master-credential", "s3cret")

	value, err := cloud.GetSecret(ctx, secrets, "rag-master-credential")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)

	_, err = cloud.GetSecret(ctx, secrets, "missing")
	assert.ErrorIs(t, err, cloud.ErrSecretNotFound)
}

func TestResolveSecret(t *testing.T) {
	ctx := context.Background()
	secrets := cloudtest.NewFakeSecrets()
	secrets.Put("a-rag-secret", "first")
	secrets.Put("rag-master-credential", "exact")

	t.Run("exact name wins", func(t *testing.T) {
		name, value, err := cloud.ResolveSecret(ctx, secrets, "rag", "rag-master-credential")
		require.NoError(t, err)
		assert.Equal(t, "rag-master-credential", name)
		assert.Equal(t, "exact", value)
	})

	t.Run("missing names fall through in order", func(t *testing.T) {
		name, value, err := cloud.ResolveSecret(ctx, secrets, "rag", "", "gone", "rag-master-credential")
		require.NoError(t, err)
		assert.Equal(t, "rag-master-credential", name)
		assert.Equal(t, "exact", value)
	})

	t.Run("pattern fallback", func(t *testing.T) {
		name, value, err := cloud.ResolveSecret(ctx, secrets, "rag", "")
		require.NoError(t, err)
		assert.Equal(t, "a-rag-secret", name)
		assert.Equal(t, "first", value)
	})
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "plain string",
			value: "p@ssw0rd",
			want:  "********",
		},
		{
			name:  "json object",
			value: `{"username":"rag","password":"abcdef"}`,
			want:  "password: ******\nusername: ***",
		},
		{
			name:  "json non-string value",
			value: `{"port":443}`,
			want:  "port: ***",
		},
		{
			name:  "json array is masked whole",
			value: `["a"]`,
			want:  "*****",
		},
		{
			name:  "multibyte",
			value: "pässwörd",
			want:  "********",
		},
		{
			name:  "empty",
			value: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cloud.MaskSecret(tt.value)
			assert.Equal(t, tt.want, got)
			if tt.value != "" {
				assert.NotContains(t, got, tt.value)
			}
		})
	}
}
