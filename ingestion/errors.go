package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexerRequired is returned when a document indexer is not provided.
	ErrIndexerRequired = errors.New("document indexer required")

	// ErrInvalidPageFile is returned when a page file is not a JSON array of pages.
	ErrInvalidPageFile = errors.New("invalid page file")

	// ErrInvalidWorkers is returned for a worker count below 1.
	ErrInvalidWorkers = errors.New("worker count must be at least 1")

	// ErrInvalidRateLimit is returned for a negative rate limit.
	ErrInvalidRateLimit = errors.New("rate limit must not be negative")

	// ErrInvalidDimension is returned for a negative vector dimension.
	ErrInvalidDimension = errors.New("dimension must not be negative")
)

var errEmptyEmbedding = errors.New("empty embedding returned")
