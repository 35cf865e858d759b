// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"context"
	"log"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// Class names for the two vector collections the assistant consumes.
// Population (embedding and ingestion) is owned by the catalog pipeline;
// the assistant only ensures the classes exist so a fresh deployment does
// not fail on the first query.
const (
	FilmClass        = "Film"
	UserProfileClass = "UserProfile"
)

func GetFilmSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       FilmClass,
		Description: "A catalog film with rich mood/plot description and availability metadata.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "Rich free-text description (mood, plot, style) used for embedding.",
				Tokenization: "word",
			},
			{
				Name:            "film_id",
				DataType:        []string{"int"},
				Description:     "Stable catalog id.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "title",
				DataType:        []string{"text"},
				Description:     "Film title.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "release_year",
				DataType:        []string{"int"},
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "director",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "genres",
				DataType:    []string{"text"},
				Description: "Comma-joined genre list.",
			},
			{
				Name:     "imdb_rating",
				DataType: []string{"number"},
			},
			{
				Name:        "cast",
				DataType:    []string{"text"},
				Description: "Comma-joined cast list.",
			},
			{
				Name:     "duration_minutes",
				DataType: []string{"int"},
			},
			{
				Name:            "availability_type",
				DataType:        []string{"text"},
				Description:     "One of included, rental, unavailable.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "rental_price",
				DataType:    []string{"number"},
				Description: "Set only when availability_type is rental.",
			},
			{
				Name:     "minimum_plan",
				DataType: []string{"text"},
			},
			{
				Name:        "netflix_url",
				DataType:    []string{"text"},
				Description: "Canonical watch URL. Set only for included/rental titles.",
			},
		},
	}
}

func GetUserProfileSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       UserProfileClass,
		Description: "A past-conversation summary for one user, used for personalization.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "Free-text conversation summary used for embedding.",
				Tokenization: "word",
			},
			{
				Name:            "user_id",
				DataType:        []string{"text"},
				Description:     "Exact-match key for per-user filtering.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:     "user_name",
				DataType: []string{"text"},
			},
			{
				Name:            "conversation_date",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "preferences",
				DataType:    []string{"text"},
				Description: "Comma-joined preference list.",
			},
			{
				Name:        "discussed_films",
				DataType:    []string{"text"},
				Description: "Comma-joined titles discussed in the past conversation.",
			},
			{
				Name:     "preferred_moods",
				DataType: []string{"text"},
			},
			{
				Name:     "liked_genres",
				DataType: []string{"text"},
			},
			{
				Name:     "disliked_genres",
				DataType: []string{"text"},
			},
		},
	}
}

// EnsureWeaviateSchema creates the Film and UserProfile classes when they do
// not exist yet. Creation failure is fatal: the service cannot answer
// catalog questions without the store.
func EnsureWeaviateSchema(client *weaviate.Client) {
	schemaGetters := []func() *models.Class{
		GetFilmSchema,
		GetUserProfileSchema,
	}

	for _, getSchema := range schemaGetters {
		class := getSchema()
		slog.Info("Checking schema", "class", class.Class)

		_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
		if err != nil {
			slog.Info("Schema not found, creating it...", "class", class.Class)
			if err := client.Schema().ClassCreator().WithClass(class).Do(context.Background()); err != nil {
				log.Fatalf("Failed to create schema for class %s: %v", class.Class, err)
			}
			slog.Info("Successfully created schema", "class", class.Class)
		} else {
			slog.Info("Schema already exists", "class", class.Class)
		}
	}
}
