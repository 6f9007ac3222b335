package index

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrEndpointRequired indicates a client config with no endpoint or addresses.
	ErrEndpointRequired = errors.New("endpoint is required")

	// ErrIndexExists indicates CreateIndex was called for an existing index.
	ErrIndexExists = errors.New("index already exists")

	// ErrIndexNotFound indicates the named index does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrInvalidSettings indicates index settings OpenSearch would reject.
	ErrInvalidSettings = errors.New("invalid index settings")

	// ErrEmbedderRequired indicates a Store was created without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrClientRequired indicates a Store was created without a client.
	ErrClientRequired = errors.New("client is required")
)

// ResponseError is a non-2xx answer from OpenSearch. Body carries the
// response as returned, which holds the error type and reason.
type ResponseError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is maps OpenSearch error types onto the package sentinels.
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrIndexExists:
		return strings.Contains(e.Body, "resource_already_exists_exception")
	case ErrIndexNotFound:
		return e.StatusCode == http.StatusNotFound && strings.Contains(e.Body, "index_not_found_exception")
	}
	return false
}
