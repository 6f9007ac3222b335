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

// Package rag answers questions with a language model grounded in pages
// retrieved from a kNN index.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/searchrag/ai"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

const (
	// DefaultTopK is how many pages are retrieved per question.
	DefaultTopK = 4

	// DefaultQuestion is asked when none is given.
	DefaultQuestion = " Can you describe the React approach?"

	// PromptTemplate is filled with the retrieved pages and the question.
	PromptTemplate = "You are an assistant for question-answering tasks. " +
		"Use the following pieces of retrieved context to answer the question. " +
		"If you don't know the answer, just say that you don't know. " +
		"Use five sentences maximum.\n\n" +
		"{{.context}}\n\n" +
		"Question: {{.question}}\n" +
		"Answer:"

	textKey    = "text"
	sourcesKey = "source_documents"
)

// Answer is the model's reply together with the pages it was given.
type Answer struct {
	Question string
	Text     string
	Sources  []schema.Document
}

// Asker runs a retrieval QA chain: retrieve pages, stuff them into the
// prompt, ask the model.
type Asker struct {
	chain       chains.Chain
	temperature float64
	topP        float64
	maxTokens   int
	logger      *slog.Logger
}

// Option configures an Asker.
type Option func(*Asker)

// WithTemperature sets the sampling temperature. The default is 0.
func WithTemperature(temperature float64) Option {
	return func(a *Asker) {
		a.temperature = temperature
	}
}

// WithTopP sets the nucleus sampling threshold.
func WithTopP(topP float64) Option {
	return func(a *Asker) {
		a.topP = topP
	}
}

// WithMaxTokens caps the answer length.
func WithMaxTokens(maxTokens int) Option {
	return func(a *Asker) {
		a.maxTokens = maxTokens
	}
}

// WithSampling copies temperature, top-p and max tokens from an AI config.
func WithSampling(cfg *ai.Config) Option {
	return func(a *Asker) {
		a.temperature = cfg.Temperature
		a.topP = cfg.TopP
		a.maxTokens = cfg.MaxTokens
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Asker) {
		a.logger = logger
	}
}

// NewRetriever returns a retriever fetching the k nearest pages from store.
func NewRetriever(store vectorstores.VectorStore, k int) schema.Retriever {
	if k < 1 {
		k = DefaultTopK
	}
	return vectorstores.ToRetriever(store, k)
}

// NewAsker builds the question answering chain over model and retriever.
func NewAsker(model llms.Model, retriever schema.Retriever, opts ...Option) (*Asker, error) {
	if model == nil {
		return nil, ErrModelRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	prompt := prompts.NewPromptTemplate(PromptTemplate, []string{"context", "question"})
	combine := chains.NewStuffDocuments(chains.NewLLMChain(model, prompt))
	qa := chains.NewRetrievalQA(combine, retriever)
	qa.ReturnSourceDocuments = true

	a := &Asker{
		chain:     qa,
		topP:      ai.DefaultTopP,
		maxTokens: ai.DefaultMaxTokens,
		logger:    slog.Default().With("component", "rag"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Ask retrieves the pages relevant to question and returns the model's answer.
func (a *Asker) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	a.logger.Debug("asking", "question", question, "temperature", a.temperature, "top_p", a.topP)
	result, err := chains.Call(ctx, a.chain, map[string]any{"query": question},
		chains.WithTemperature(a.temperature),
		chains.WithTopP(a.topP),
		chains.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	text, ok := result[textKey].(string)
	if !ok {
		return nil, fmt.Errorf("chain returned no %q output", textKey)
	}
	sources, _ := result[sourcesKey].([]schema.Document)

	a.logger.Info("question answered", "sources", len(sources))
	return &Answer{
		Question: question,
		Text:     strings.TrimSpace(text),
		Sources:  sources,
	}, nil
}
