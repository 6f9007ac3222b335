package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePage(t *testing.T) {
	tests := []struct {
		name      string
		page      *Page
		dimension int
		wantErr   error
	}{
		{
			name:      "valid page",
			page:      &Page{PageNumber: 1, Text: "Hello world", Vector: []float32{0.1, 0.2}},
			dimension: 2,
			wantErr:   nil,
		},
		{
			name:      "dimension check disabled",
			page:      &Page{PageNumber: 1, Text: "Hello world", Vector: []float32{0.1}},
			dimension: 0,
			wantErr:   nil,
		},
		{
			name:    "nil page",
			page:    nil,
			wantErr: ErrInvalidPage,
		},
		{
			name:    "zero page number",
			page:    &Page{PageNumber: 0, Text: "Hello", Vector: []float32{0.1}},
			wantErr: ErrInvalidPageNumber,
		},
		{
			name:    "blank text",
			page:    &Page{PageNumber: 1, Text: "  \n\t", Vector: []float32{0.1}},
			wantErr: ErrEmptyText,
		},
		{
			name:    "missing vector",
			page:    &Page{PageNumber: 1, Text: "Hello"},
			wantErr: ErrMissingVector,
		},
		{
			name:      "wrong dimension",
			page:      &Page{PageNumber: 1, Text: "Hello", Vector: []float32{0.1, 0.2, 0.3}},
			dimension: 1536,
			wantErr:   ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePage(tt.page, tt.dimension)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePage() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidatePage() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePage() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidPage) {
				t.Errorf("ValidatePage() error = %v, want wrapped ErrInvalidPage", err)
			}
		})
	}
}

func TestValidateDomainName(t *testing.T) {
	valid := []string{"rag", "rag-search", "a12", strings.Repeat("a", 28)}
	for _, name := range valid {
		if err := ValidateDomainName(name); err != nil {
			t.Errorf("ValidateDomainName(%q) error = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "ab", strings.Repeat("a", 29), "Rag", "1rag", "rag_search", "rag.search", "-rag"}
	for _, name := range invalid {
		err := ValidateDomainName(name)
		if !errors.Is(err, ErrInvalidDomainName) {
			t.Errorf("ValidateDomainName(%q) error = %v, want ErrInvalidDomainName", name, err)
		}
	}
}

func TestValidateIndexName(t *testing.T) {
	valid := []string{"rag", "rag-test", "docs.2024", "a"}
	for _, name := range valid {
		if err := ValidateIndexName(name); err != nil {
			t.Errorf("ValidateIndexName(%q) error = %v, want nil", name, err)
		}
	}

	invalid := []string{"", ".", "..", "_rag", "-rag", "+rag", "Rag", "rag index", "rag*", "rag/x", "rag:1", strings.Repeat("a", 256)}
	for _, name := range invalid {
		err := ValidateIndexName(name)
		if !errors.Is(err, ErrInvalidIndexName) {
			t.Errorf("ValidateIndexName(%q) error = %v, want ErrInvalidIndexName", name, err)
		}
	}
}

func TestValidateDomainState(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := ValidateDomainState(&DomainState{DomainName: "rag", Region: "eu-central-1"})
		if err != nil {
			t.Errorf("ValidateDomainState() error = %v, want nil", err)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if err := ValidateDomainState(nil); !errors.Is(err, ErrInvalidDomainState) {
			t.Errorf("ValidateDomainState(nil) error = %v", err)
		}
	})

	t.Run("bad name", func(t *testing.T) {
		err := ValidateDomainState(&DomainState{DomainName: "X", Region: "eu-central-1"})
		if !errors.Is(err, ErrInvalidDomainName) {
			t.Errorf("ValidateDomainState() error = %v, want ErrInvalidDomainName", err)
		}
	})

	t.Run("missing region", func(t *testing.T) {
		err := ValidateDomainState(&DomainState{DomainName: "rag"})
		if !errors.Is(err, ErrInvalidDomainState) {
			t.Errorf("ValidateDomainState() error = %v, want ErrInvalidDomainState", err)
		}
	})
}
