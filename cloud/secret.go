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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// FindSecretName lists every secret in the account and returns the first
// name containing pattern.
func FindSecretName(ctx context.Context, api SecretReader, pattern string) (string, error) {
	logger := slog.Default().With("component", "cloud")
	paginator := secretsmanager.NewListSecretsPaginator(api, &secretsmanager.ListSecretsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list secrets: %w", err)
		}
		for _, entry := range page.SecretList {
			name := aws.ToString(entry.Name)
			if strings.Contains(name, pattern) {
				logger.Debug("found secret", "name", name, "pattern", pattern)
				return name, nil
			}
		}
	}

	return "", fmt.Errorf("%w: pattern %q", ErrSecretNotFound, pattern)
}

// GetSecret returns the string value of a secret.
func GetSecret(ctx context.Context, api SecretReader, name string) (string, error) {
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		if IsSecretNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return "", fmt.Errorf("failed to read secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("%w: %s", ErrEmptySecret, name)
	}
	return *out.SecretString, nil
}

// ResolveSecret reads the first of names that exists, skipping empty ones,
// and otherwise the first secret whose name contains pattern.
// It returns the resolved name and the value.
func ResolveSecret(ctx context.Context, api SecretReader, pattern string, names ...string) (string, string, error) {
	for _, name := range names {
		if name == "" {
			continue
		}
		value, err := GetSecret(ctx, api, name)
		if err == nil {
			return name, value, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			return "", "", err
		}
	}

	name, err := FindSecretName(ctx, api, pattern)
	if err != nil {
		return "", "", err
	}
	value, err := GetSecret(ctx, api, name)
	if err != nil {
		return "", "", err
	}
	return name, value, nil
}
