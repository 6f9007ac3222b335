package provision

import "errors"

var (
	ErrInvalidConfig         = errors.New("invalid domain config")
	ErrDomainDeleting        = errors.New("domain is still being deleted")
	ErrWaitTimeout           = errors.New("timed out waiting for domain")
	ErrNotProvisioned        = errors.New("domain is not provisioned")
	ErrInvalidRecoveryWindow = errors.New("recovery window must be between 7 and 30 days")
	ErrInvalidPolicy         = errors.New("invalid access policy")
	ErrPlanMismatch          = errors.New("plan was made for a different configuration")
)
