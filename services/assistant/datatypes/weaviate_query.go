// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target
// type.
//
// # Description
//
// Encapsulates the marshal/unmarshal round trip required to convert
// Weaviate's dynamic response (map[string]models.JSONObject) into a
// strongly-typed Go struct. The target type T must carry json tags matching
// the expected response shape.
//
// # Example
//
//	type FilmResponse struct {
//	    Get struct {
//	        Film []FilmResult `json:"Film"`
//	    } `json:"Get"`
//	}
//
//	resp, err := client.GraphQL().Get().WithClassName("Film").Do(ctx)
//	parsed, err := ParseGraphQLResponse[FilmResponse](resp)
//
// # Limitations
//
//   - Type mismatches produce zero values, not errors.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL query returned errors: %v", resp.Errors[0].Message)
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// Additional carries the per-object metadata Weaviate returns under
// _additional. Certainty is always in [0,1] regardless of distance metric.
type Additional struct {
	ID        string  `json:"id"`
	Certainty float64 `json:"certainty"`
}

// FilmResult is a single Film object from a GraphQL query.
type FilmResult struct {
	Content          string     `json:"content"`
	FilmId           int        `json:"film_id"`
	Title            string     `json:"title"`
	ReleaseYear      int        `json:"release_year"`
	Director         string     `json:"director"`
	Genres           string     `json:"genres"`
	ImdbRating       float64    `json:"imdb_rating"`
	Cast             string     `json:"cast"`
	DurationMinutes  int        `json:"duration_minutes"`
	AvailabilityType string     `json:"availability_type"`
	RentalPrice      float64    `json:"rental_price"`
	MinimumPlan      string     `json:"minimum_plan"`
	NetflixURL       string     `json:"netflix_url"`
	Extra            Additional `json:"_additional"`
}

// FilmQueryResponse is the typed shape of a Film class query.
type FilmQueryResponse struct {
	Get struct {
		Film []FilmResult `json:"Film"`
	} `json:"Get"`
}

// UserProfileResult is a single UserProfile object from a GraphQL query.
type UserProfileResult struct {
	Content          string     `json:"content"`
	UserId           string     `json:"user_id"`
	UserName         string     `json:"user_name"`
	ConversationDate string     `json:"conversation_date"`
	Preferences      string     `json:"preferences"`
	DiscussedFilms   string     `json:"discussed_films"`
	PreferredMoods   string     `json:"preferred_moods"`
	LikedGenres      string     `json:"liked_genres"`
	DislikedGenres   string     `json:"disliked_genres"`
	Extra            Additional `json:"_additional"`
}

// UserProfileQueryResponse is the typed shape of a UserProfile class query.
type UserProfileQueryResponse struct {
	Get struct {
		UserProfile []UserProfileResult `json:"UserProfile"`
	} `json:"Get"`
}
