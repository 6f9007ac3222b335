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

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex returns the ID as a fixed-width lowercase hex string.
func (id ID) Hex() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Page is one page of extracted document text, optionally carrying its embedding.
// The JSON field names match the documents stored in the search index.
type Page struct {
	Source     string    `json:"source,omitempty"` // file the page was extracted from
	PageNumber int       `json:"page_number"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector_field,omitempty"`
}

// HasVector reports whether the page has been embedded.
func (p *Page) HasVector() bool {
	return len(p.Vector) > 0
}

// DocumentID returns the deterministic index document ID for the page.
// Re-ingesting the same file overwrites instead of duplicating.
func (p *Page) DocumentID() string {
	return DocumentID(p.Source, p.PageNumber, p.Text)
}

// DocumentID derives an index document ID from where a text came from and
// the text itself. Identical text on different pages or in different files
// gets distinct IDs.
func DocumentID(source string, pageNumber int, text string) string {
	return IDFromContent(fmt.Sprintf("%s\x00%d\x00%s", source, pageNumber, text)).Hex()
}

// IndexDocument is the body written to the search index for each page.
type IndexDocument struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector_field"`
}

// NewIndexDocument builds the index body for a page.
func NewIndexDocument(p *Page) IndexDocument {
	return IndexDocument{
		Text:   p.Text,
		Vector: p.Vector,
	}
}

// DomainState records what was last applied for a search domain.
// It plays the role of a local state file: plan compares against it and
// lookups prefer its exact names over pattern searches.
type DomainState struct {
	DomainName    string
	Region        string
	DomainARN     string
	Endpoint      string
	EngineVersion string
	SecretName    string
	SecretARN     string
	ConfigDigest  ID        // digest of the desired configuration at apply time
	AppliedAt     time.Time // when apply last completed
}
