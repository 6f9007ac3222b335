package rag

import "errors"

var (
	// ErrEmptyQuestion is returned when Ask is called with a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrModelRequired is returned when no language model is provided.
	ErrModelRequired = errors.New("language model required")

	// ErrRetrieverRequired is returned when no retriever is provided.
	ErrRetrieverRequired = errors.New("retriever required")
)
