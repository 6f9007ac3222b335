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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPage indicates a Page failed validation.
	ErrInvalidPage = errors.New("invalid page")

	// ErrInvalidPageNumber indicates a page number below 1.
	ErrInvalidPageNumber = errors.New("page number must be at least 1")

	// ErrEmptyText indicates the page text is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrMissingVector indicates a page has no embedding.
	ErrMissingVector = errors.New("page has no vector")

	// ErrDimensionMismatch indicates a vector with the wrong number of dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidDomainName indicates a search domain name AWS would reject.
	ErrInvalidDomainName = errors.New("invalid domain name")

	// ErrInvalidIndexName indicates an index name OpenSearch would reject.
	ErrInvalidIndexName = errors.New("invalid index name")

	// ErrInvalidDomainState indicates a DomainState failed validation.
	ErrInvalidDomainState = errors.New("invalid domain state")
)
