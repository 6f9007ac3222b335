package provision

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const policyVersion = "2012-10-17"

// PolicyDocument is an IAM resource policy.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

// PolicyStatement is one statement of a PolicyDocument.
type PolicyStatement struct {
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal"`
	Action    string            `json:"Action"`
	Resource  string            `json:"Resource"`
}

// DomainARN builds the ARN of a search domain.
func DomainARN(partition, region, account, domain string) string {
	return fmt.Sprintf("arn:%s:es:%s:%s:domain/%s", partition, region, account, domain)
}

// AccessPolicy returns the domain's resource policy: every principal may call
// es:* on everything inside the domain. Access is then governed by
// fine-grained access control and the master user.
func AccessPolicy(partition, region, account, domain string) string {
	doc := PolicyDocument{
		Version: policyVersion,
		Statement: []PolicyStatement{{
			Effect:    "Allow",
			Principal: map[string]string{"AWS": "*"},
			Action:    "es:*",
			Resource:  DomainARN(partition, region, account, domain) + "/*",
		}},
	}
	data, _ := json.Marshal(doc)
	return string(data)
}

// PoliciesEqual compares two policy documents by meaning rather than text.
// AWS re-serializes stored policies, turning single values into one-element
// lists and reordering keys.
func PoliciesEqual(a, b string) (bool, error) {
	da, err := decodePolicy(a)
	if err != nil {
		return false, err
	}
	db, err := decodePolicy(b)
	if err != nil {
		return false, err
	}
	return cmp.Equal(da, db,
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(x, y string) bool { return x < y }),
	), nil
}

func decodePolicy(s string) (any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	return normalizePolicy("", doc), nil
}

// listKeys hold a string or a list of strings with the same meaning.
var listKeys = map[string]bool{
	"Action":      true,
	"NotAction":   true,
	"Resource":    true,
	"NotResource": true,
	"AWS":         true,
	"Service":     true,
	"Federated":   true,
}

func normalizePolicy(key string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizePolicy(k, inner)
		}
		return out
	case []any:
		if listKeys[key] {
			return stringList(val)
		}
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizePolicy("", inner)
		}
		return out
	case string:
		if listKeys[key] {
			return []string{val}
		}
		if (key == "Principal" || key == "NotPrincipal") && val == "*" {
			return map[string]any{"AWS": []string{"*"}}
		}
		return val
	default:
		return val
	}
}

func stringList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return out
}
