package storage

import (
	"context"

	"github.com/poiesic/searchrag/core"
)

// StateRepository persists what apply created, keyed by domain name.
type StateRepository interface {
	// SaveState stores the state for state.DomainName, replacing any previous value.
	SaveState(ctx context.Context, state *core.DomainState) error

	// LoadState returns the stored state for a domain.
	// Returns nil, nil if no state exists.
	LoadState(ctx context.Context, domainName string) (*core.DomainState, error)

	// DeleteState removes the stored state for a domain.
	// Deleting a missing state is not an error.
	DeleteState(ctx context.Context, domainName string) error

	// ListStates returns every stored state ordered by domain name.
	ListStates(ctx context.Context) ([]*core.DomainState, error)
}
