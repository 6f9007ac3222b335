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

package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/searchrag/core"
	"github.com/poiesic/searchrag/storage"
)

// StateRepository implements storage.StateRepository for BadgerDB.
type StateRepository struct {
	backend *Backend
}

var _ storage.StateRepository = (*StateRepository)(nil)

// NewStateRepository creates a new StateRepository.
func NewStateRepository(backend *Backend) *StateRepository {
	return &StateRepository{
		backend: backend,
	}
}

// SaveState persists the state for state.DomainName.
func (r *StateRepository) SaveState(ctx context.Context, state *core.DomainState) error {
	if err := core.ValidateDomainState(state); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeStateKey(state.DomainName)
		value := storage.MarshalDomainState(state)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadState retrieves the state for a domain.
// Returns nil, nil if no state exists.
func (r *StateRepository) LoadState(ctx context.Context, domainName string) (*core.DomainState, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var state *core.DomainState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeStateKey(domainName))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalDomainState(val)
			return unmarshalErr
		})
	}, false)

	return state, err
}

// DeleteState removes the state for a domain.
func (r *StateRepository) DeleteState(ctx context.Context, domainName string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeStateKey(domainName)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListStates returns all stored states in key order, which is domain name order.
func (r *StateRepository) ListStates(ctx context.Context) ([]*core.DomainState, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var states []*core.DomainState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = stateKeyPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			err := item.Value(func(val []byte) error {
				state, err := storage.UnmarshalDomainState(val)
				if err != nil {
					r.backend.logger.Warn("skipping unreadable state",
						"domain", domainFromStateKey(item.Key()), "err", err)
					return nil
				}
				states = append(states, state)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return states, err
}
