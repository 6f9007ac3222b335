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

package core

import (
	"fmt"
	"strings"
)

// ValidatePage validates a Page before it is written to the index.
//
// Validation rules:
//   - PageNumber must be at least 1
//   - Text must not be empty
//   - Vector must be present
//   - Vector length must equal dimension when dimension > 0
func ValidatePage(page *Page, dimension int) error {
	if page == nil {
		return fmt.Errorf("%w: page is nil", ErrInvalidPage)
	}

	if page.PageNumber < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrInvalidPageNumber)
	}

	if strings.TrimSpace(page.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrEmptyText)
	}

	if !page.HasVector() {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrMissingVector)
	}

	if dimension > 0 && len(page.Vector) != dimension {
		return fmt.Errorf("%w: %w: got %d, want %d", ErrInvalidPage, ErrDimensionMismatch, len(page.Vector), dimension)
	}

	return nil
}

// ValidateDomainName checks the naming rules AWS applies to OpenSearch domains:
// 3 to 28 characters, starting with a lowercase letter, containing only
// lowercase letters, digits and hyphens.
func ValidateDomainName(name string) error {
	if len(name) < 3 || len(name) > 28 {
		return fmt.Errorf("%w: %q must be 3-28 characters", ErrInvalidDomainName, name)
	}
	if name[0] < 'a' || name[0] > 'z' {
		return fmt.Errorf("%w: %q must start with a lowercase letter", ErrInvalidDomainName, name)
	}
	for _, r := range name {
		if !isLowerAlnum(r) && r != '-' {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidDomainName, name, r)
		}
	}
	return nil
}

// ValidateIndexName checks the naming rules OpenSearch applies to indices.
func ValidateIndexName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidIndexName)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidIndexName, name)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: name longer than 255 bytes", ErrInvalidIndexName)
	}
	if strings.ContainsAny(name[:1], "_-+") {
		return fmt.Errorf("%w: %q cannot start with _, - or +", ErrInvalidIndexName, name)
	}
	if strings.ToLower(name) != name {
		return fmt.Errorf("%w: %q must be lowercase", ErrInvalidIndexName, name)
	}
	if strings.ContainsAny(name, ` "*\<|,>/?#:`) {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidIndexName, name)
	}
	return nil
}

// ValidateDomainState validates a DomainState before it is persisted.
func ValidateDomainState(state *DomainState) error {
	if state == nil {
		return fmt.Errorf("%w: state is nil", ErrInvalidDomainState)
	}
	if err := ValidateDomainName(state.DomainName); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDomainState, err)
	}
	if state.Region == "" {
		return fmt.Errorf("%w: region is empty", ErrInvalidDomainState)
	}
	return nil
}

func isLowerAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
