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

// Package storage provides the local state layer for searchrag.
//
// Provisioning needs to remember what it created between runs: the domain
// ARN, the exact secret name, the digest of the configuration that was
// applied. This package defines the StateRepository interface that plan,
// apply and destroy depend on, and the MUS serializer for core.DomainState.
//
// # Implementations
//
//   - storage/badger: BadgerDB-backed repository, on disk or in memory
//
// # Usage
//
//	backend, err := badger.OpenBackend(".searchrag/state", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	states := badger.NewStateRepository(backend)
//	state, err := states.LoadState(ctx, "rag")
//
// Tests use the in-memory variant:
//
//	states, backend, err := badger.NewMemoryStateRepository()
//
// # Context Support
//
// Repository methods accept context.Context for symmetry with the rest of
// the codebase; BadgerDB operations themselves are not cancellable.
package storage
