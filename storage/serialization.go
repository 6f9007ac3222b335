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

package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/searchrag/core"
)

// stateFormatVersion is written ahead of every encoded DomainState.
const stateFormatVersion uint64 = 1

// MarshalDomainState serializes a DomainState to bytes, prefixed with the
// state format version.
func MarshalDomainState(state *core.DomainState) []byte {
	buf := make([]byte, varint.Uint64.Size(stateFormatVersion)+core.DomainStateMUS.Size(*state))
	n := varint.Uint64.Marshal(stateFormatVersion, buf)
	core.DomainStateMUS.Marshal(*state, buf[n:])
	return buf
}

// UnmarshalDomainState deserializes a DomainState from bytes.
func UnmarshalDomainState(data []byte) (*core.DomainState, error) {
	version, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if version != stateFormatVersion {
		return nil, fmt.Errorf("%w: unsupported state format %d", ErrSerializationFailed, version)
	}
	state, _, err := core.DomainStateMUS.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	state.AppliedAt = state.AppliedAt.UTC()
	return &state, nil
}
