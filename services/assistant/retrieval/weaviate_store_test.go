// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

func TestBuildWhere(t *testing.T) {
	assert.Nil(t, buildWhere(nil))
	assert.Nil(t, buildWhere([]Filter{}))
	assert.NotNil(t, buildWhere([]Filter{{Key: "user_id", Value: "alice"}}))
	assert.NotNil(t, buildWhere([]Filter{
		{Key: "user_id", Value: "alice"},
		{Key: "availability_type", Value: "included"},
	}))
}

func TestFieldsForClass(t *testing.T) {
	filmFields := fieldsForClass(datatypes.FilmClass)
	names := make([]string, 0, len(filmFields))
	for _, f := range filmFields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "availability_type")
	assert.Contains(t, names, "netflix_url")
	assert.Contains(t, names, "_additional")

	profileFields := fieldsForClass(datatypes.UserProfileClass)
	names = names[:0]
	for _, f := range profileFields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "user_id")
	assert.NotContains(t, names, "netflix_url")
}

func TestDocumentsForClass_Film(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				"Film": []interface{}{
					map[string]interface{}{
						"content":           "Un heist nei sogni.",
						"title":             "Inception",
						"availability_type": "rental",
						"rental_price":      3.99,
						"_additional":       map[string]interface{}{"certainty": 0.87},
					},
					map[string]interface{}{
						"content":           "Un western crepuscolare.",
						"title":             "Unforgiven",
						"availability_type": "unavailable",
						"_additional":       map[string]interface{}{"certainty": 0.62},
					},
				},
			},
		},
	}

	docs, err := documentsForClass(datatypes.FilmClass, resp)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Un heist nei sogni.", docs[0].PageContent)
	assert.Equal(t, float32(0.87), docs[0].Score)
	assert.Equal(t, 3.99, docs[0].Metadata["rental_price"])

	// A zero rental price must not surface in metadata at all.
	_, hasPrice := docs[1].Metadata["rental_price"]
	assert.False(t, hasPrice)
}

func TestDocumentsForClass_UserProfile(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				"UserProfile": []interface{}{
					map[string]interface{}{
						"content":     "Ama i thriller psicologici.",
						"user_id":     "alice",
						"user_name":   "Alice",
						"_additional": map[string]interface{}{"certainty": 0.79},
					},
				},
			},
		},
	}

	docs, err := documentsForClass(datatypes.UserProfileClass, resp)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "alice", docs[0].Metadata["user_id"])
	assert.Equal(t, float32(0.79), docs[0].Score)
}

func TestIsStoreUnavailable(t *testing.T) {
	qerr := &QueryError{
		Class: datatypes.FilmClass,
		Err:   fmt.Errorf("%w: connection refused", ErrStoreUnavailable),
	}
	assert.True(t, IsStoreUnavailable(qerr))
	assert.Contains(t, qerr.Error(), "Film")
	assert.False(t, IsStoreUnavailable(errors.New("something else")))
}
