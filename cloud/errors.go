package cloud

import (
	"errors"

	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

var (
	ErrRegionRequired      = errors.New("AWS region is required")
	ErrEndpointUnavailable = errors.New("domain endpoint is not available")
	ErrSecretNotFound      = errors.New("no matching secret found")
	ErrEmptySecret         = errors.New("secret has no string value")
)

// IsDomainNotFound reports whether err is the OpenSearch Service "not found" exception.
func IsDomainNotFound(err error) bool {
	var nf *ostypes.ResourceNotFoundException
	return errors.As(err, &nf)
}

// IsSecretNotFound reports whether err is the Secrets Manager "not found" exception.
func IsSecretNotFound(err error) bool {
	var nf *smtypes.ResourceNotFoundException
	return errors.As(err, &nf)
}

// IsSecretExists reports whether err says a secret with that name already exists.
func IsSecretExists(err error) bool {
	var exists *smtypes.ResourceExistsException
	return errors.As(err, &exists)
}
