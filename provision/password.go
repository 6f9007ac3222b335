package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/google/uuid"
	"github.com/poiesic/searchrag/cloud"
)

const (
	passwordLength = 32

	// Characters OpenSearch or shell quoting handle badly.
	excludedPasswordChars = `"'\/@`
)

// tokenNamespace scopes the UUIDv5 request tokens derived for secrets.
var tokenNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/poiesic/searchrag/secret"))

// generatePassword asks Secrets Manager for a master password containing
// every character class.
func generatePassword(ctx context.Context, api cloud.SecretsAPI) (string, error) {
	out, err := api.GetRandomPassword(ctx, &secretsmanager.GetRandomPasswordInput{
		PasswordLength:          aws.Int64(passwordLength),
		ExcludeCharacters:       aws.String(excludedPasswordChars),
		RequireEachIncludedType: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return aws.ToString(out.RandomPassword), nil
}

// secretRequestToken derives the CreateSecret idempotency token. The same
// region, domain and secret always yield the same token.
func secretRequestToken(region, domain, secret string) string {
	return uuid.NewSHA1(tokenNamespace, []byte(region+"/"+domain+"/"+secret)).String()
}
