// Package cloud wraps the AWS control-plane calls searchrag makes.
//
// Every service is reached through a narrow interface (DomainAPI, SecretsAPI,
// IdentityAPI) that the SDK clients satisfy, so callers can be tested with
// hand-written fakes. The package also holds the read-only lookups used by
// the CLI: the domain endpoint and the master credential, with MaskSecret to
// print the latter without revealing it.
package cloud
