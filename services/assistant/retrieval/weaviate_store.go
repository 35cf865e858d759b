// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/schema"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

var tracer = otel.Tracer("moviechat.retrieval")

// WeaviateStore implements DocumentStore against a Weaviate instance.
//
// # Description
//
// WeaviateStore embeds the query text and runs a nearVector search over the
// requested class, optionally restricted by exact-match metadata filters.
// It knows the field layout of the Film and UserProfile classes and converts
// results into documents whose metadata mirrors the stored properties.
//
// # Thread Safety
//
// WeaviateStore is safe for concurrent use. The underlying Weaviate client
// handles connection pooling.
//
// # Example
//
//	embedder, _ := NewOpenAIEmbedder()
//	store := NewWeaviateStore(client, embedder)
//	docs, err := store.SimilaritySearch(ctx, datatypes.FilmClass, "noir anni 70", 5, nil)
type WeaviateStore struct {
	client   *weaviate.Client
	embedder EmbeddingProvider
}

// NewWeaviateStore creates a store over the given client and embedder.
func NewWeaviateStore(client *weaviate.Client, embedder EmbeddingProvider) *WeaviateStore {
	return &WeaviateStore{
		client:   client,
		embedder: embedder,
	}
}

// SimilaritySearch returns up to k documents from the given class ordered by
// decreasing certainty.
//
// # Inputs
//
//   - ctx: Context for cancellation and timeout.
//   - class: datatypes.FilmClass or datatypes.UserProfileClass.
//   - query: The free text to embed and search with.
//   - k: Maximum number of documents; values < 1 fall back to 1.
//   - filterBy: Optional exact-match metadata filters, combined with AND.
//
// # Outputs
//
//   - []schema.Document: Matching documents, best first. Empty is not an error.
//   - error: ErrStoreUnavailable (wrapped) if Weaviate cannot be reached,
//     a plain error for embedding or parse failures.
func (s *WeaviateStore) SimilaritySearch(ctx context.Context, class string, query string, k int, filterBy []Filter) ([]schema.Document, error) {
	ctx, span := tracer.Start(ctx, "SimilaritySearch")
	defer span.End()

	if k < 1 {
		slog.Warn("Invalid result limit for similarity search, using 1", "provided", k)
		k = 1
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	builder := s.client.GraphQL().Get().
		WithClassName(class).
		WithFields(fieldsForClass(class)...).
		WithNearVector(nearVector).
		WithLimit(k)

	if where := buildWhere(filterBy); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		slog.Error("Weaviate similarity search failed", "class", class, "error", err)
		return nil, &QueryError{Class: class, Err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
	}

	docs, err := documentsForClass(class, result)
	if err != nil {
		slog.Error("Failed to parse similarity search results", "class", class, "error", err)
		return nil, &QueryError{Class: class, Err: err}
	}

	slog.Debug("Similarity search complete", "class", class, "requested", k, "returned", len(docs))
	return docs, nil
}

// buildWhere combines exact-match filters with AND. Returns nil when the
// slice is empty so callers can skip WithWhere entirely.
func buildWhere(filterBy []Filter) *filters.WhereBuilder {
	if len(filterBy) == 0 {
		return nil
	}

	operands := make([]*filters.WhereBuilder, 0, len(filterBy))
	for _, f := range filterBy {
		operands = append(operands, filters.Where().
			WithPath([]string{f.Key}).
			WithOperator(filters.Equal).
			WithValueString(f.Value))
	}

	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().
		WithOperator(filters.And).
		WithOperands(operands)
}

func fieldsForClass(class string) []graphql.Field {
	additional := graphql.Field{Name: "_additional", Fields: []graphql.Field{
		{Name: "id"},
		{Name: "certainty"},
	}}

	switch class {
	case datatypes.UserProfileClass:
		return []graphql.Field{
			{Name: "content"},
			{Name: "user_id"},
			{Name: "user_name"},
			{Name: "conversation_date"},
			{Name: "preferences"},
			{Name: "discussed_films"},
			{Name: "preferred_moods"},
			{Name: "liked_genres"},
			{Name: "disliked_genres"},
			additional,
		}
	default:
		return []graphql.Field{
			{Name: "content"},
			{Name: "film_id"},
			{Name: "title"},
			{Name: "release_year"},
			{Name: "director"},
			{Name: "genres"},
			{Name: "imdb_rating"},
			{Name: "cast"},
			{Name: "duration_minutes"},
			{Name: "availability_type"},
			{Name: "rental_price"},
			{Name: "minimum_plan"},
			{Name: "netflix_url"},
			additional,
		}
	}
}

func documentsForClass(class string, result *models.GraphQLResponse) ([]schema.Document, error) {
	switch class {
	case datatypes.UserProfileClass:
		parsed, err := datatypes.ParseGraphQLResponse[datatypes.UserProfileQueryResponse](result)
		if err != nil {
			return nil, fmt.Errorf("failed to parse results: %w", err)
		}
		return profileDocuments(parsed), nil
	default:
		parsed, err := datatypes.ParseGraphQLResponse[datatypes.FilmQueryResponse](result)
		if err != nil {
			return nil, fmt.Errorf("failed to parse results: %w", err)
		}
		return filmDocuments(parsed), nil
	}
}

func filmDocuments(resp *datatypes.FilmQueryResponse) []schema.Document {
	docs := make([]schema.Document, 0, len(resp.Get.Film))
	for _, film := range resp.Get.Film {
		meta := map[string]any{
			"film_id":           film.FilmId,
			"title":             film.Title,
			"release_year":      film.ReleaseYear,
			"director":          film.Director,
			"genres":            film.Genres,
			"imdb_rating":       film.ImdbRating,
			"cast":              film.Cast,
			"duration_minutes":  film.DurationMinutes,
			"availability_type": film.AvailabilityType,
			"minimum_plan":      film.MinimumPlan,
			"netflix_url":       film.NetflixURL,
		}
		if film.RentalPrice > 0 {
			meta["rental_price"] = film.RentalPrice
		}

		docs = append(docs, schema.Document{
			PageContent: film.Content,
			Metadata:    meta,
			Score:       float32(film.Extra.Certainty),
		})
	}
	return docs
}

func profileDocuments(resp *datatypes.UserProfileQueryResponse) []schema.Document {
	docs := make([]schema.Document, 0, len(resp.Get.UserProfile))
	for _, profile := range resp.Get.UserProfile {
		docs = append(docs, schema.Document{
			PageContent: profile.Content,
			Metadata: map[string]any{
				"user_id":           profile.UserId,
				"user_name":         profile.UserName,
				"conversation_date": profile.ConversationDate,
				"preferences":       profile.Preferences,
				"discussed_films":   profile.DiscussedFilms,
				"preferred_moods":   profile.PreferredMoods,
				"liked_genres":      profile.LikedGenres,
				"disliked_genres":   profile.DislikedGenres,
			},
			Score: float32(profile.Extra.Certainty),
		})
	}
	return docs
}
