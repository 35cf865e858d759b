// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retrieval provides vector search over the film catalog and
// stored user profiles.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/schema"
)

// ErrStoreUnavailable is returned when the vector store cannot be reached
// or refuses the query. Callers treat it as transient.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// QueryError wraps a store failure with the class that was being queried.
type QueryError struct {
	Class string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query against class '%s' failed: %v", e.Class, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsStoreUnavailable reports whether err stems from an unreachable store.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// Filter restricts a similarity search to documents whose metadata key has
// exactly the given string value.
type Filter struct {
	Key   string
	Value string
}

// EmbeddingProvider computes vector embeddings for query text.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentStore is the read side of the vector database.
//
// SimilaritySearch returns up to k documents ordered by decreasing
// similarity. An empty result is not an error.
type DocumentStore interface {
	SimilaritySearch(ctx context.Context, class string, query string, k int, filterBy []Filter) ([]schema.Document, error)
}
