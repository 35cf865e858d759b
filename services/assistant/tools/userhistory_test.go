// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"github.com/moviechat/moviechat/services/assistant/retrieval"
)

// fakeStore replays canned documents and records the queries it saw.
type fakeStore struct {
	docs    []schema.Document
	err     error
	queries []string
	classes []string
	ks      []int
	filters [][]retrieval.Filter
}

func (f *fakeStore) SimilaritySearch(ctx context.Context, class string, query string, k int, filterBy []retrieval.Filter) ([]schema.Document, error) {
	f.classes = append(f.classes, class)
	f.queries = append(f.queries, query)
	f.ks = append(f.ks, k)
	f.filters = append(f.filters, filterBy)
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func profileDoc(userID, userName string) schema.Document {
	return schema.Document{
		PageContent: "Conversazione sui thriller psicologici preferiti.",
		Metadata: map[string]any{
			"user_id":           userID,
			"user_name":         userName,
			"conversation_date": "2025-06-10",
			"preferences":       "thriller, suspense",
			"discussed_films":   "Inception, Get Out",
		},
	}
}

func TestUserHistory_FirstMeeting(t *testing.T) {
	store := &fakeStore{}
	tool := NewUserHistoryTool(store)

	answer, err := tool.Run(context.Background(), TurnContext{}, "user_id:brand_new_user")
	require.NoError(t, err)
	assert.Equal(t, FirstMeetingMessage("brand_new_user"), answer)

	// First meeting wording must not read like a failure.
	assert.NotContains(t, answer, "Errore")
	assert.NotContains(t, answer, "errore")
}

func TestUserHistory_FormatsRecords(t *testing.T) {
	store := &fakeStore{docs: []schema.Document{profileDoc("user123", "Marco")}}
	tool := NewUserHistoryTool(store)

	answer, err := tool.Run(context.Background(), TurnContext{}, "user_id:user123 preferenze horror")
	require.NoError(t, err)
	assert.Contains(t, answer, "STORICO CONVERSAZIONI - Utente user123")
	assert.Contains(t, answer, "Marco")
	assert.Contains(t, answer, "Inception")

	// The lookup filters exactly on user_id and ranks on the context.
	require.Len(t, store.filters, 1)
	assert.Equal(t, []retrieval.Filter{{Key: "user_id", Value: "user123"}}, store.filters[0])
	assert.Equal(t, []string{"preferenze horror"}, store.queries)
	assert.Equal(t, []int{userHistoryK}, store.ks)
}

func TestUserHistory_DefaultQueryWhenNoContext(t *testing.T) {
	store := &fakeStore{}
	tool := NewUserHistoryTool(store)

	_, err := tool.Run(context.Background(), TurnContext{}, "user_id:user123")
	require.NoError(t, err)
	assert.Equal(t, []string{defaultHistoryQuery}, store.queries)
}

func TestUserHistory_PostFilterDropsMismatches(t *testing.T) {
	store := &fakeStore{docs: []schema.Document{
		profileDoc("user123", "Marco"),
		profileDoc("intruder", "Eve"),
	}}
	tool := NewUserHistoryTool(store)

	answer, err := tool.Run(context.Background(), TurnContext{}, "user_id:user123")
	require.NoError(t, err)
	assert.Contains(t, answer, "Marco")
	assert.NotContains(t, answer, "Eve")
}

func TestUserHistory_MissingPrefixFallsBackToTurnUser(t *testing.T) {
	store := &fakeStore{}
	tool := NewUserHistoryTool(store)

	answer, err := tool.Run(context.Background(), TurnContext{UserID: "alice"}, "preferenze thriller")
	require.NoError(t, err)
	assert.Equal(t, FirstMeetingMessage("alice"), answer)
	require.Len(t, store.filters, 1)
	assert.Equal(t, "alice", store.filters[0][0].Value)
}

func TestUserHistory_MissingPrefixNoTurnUser(t *testing.T) {
	store := &fakeStore{}
	tool := NewUserHistoryTool(store)

	answer, err := tool.Run(context.Background(), TurnContext{}, "preferenze thriller")
	require.NoError(t, err)
	assert.Equal(t, userHistoryUsage, answer)
	assert.Empty(t, store.queries)
}

func TestParseHistoryInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		userID  string
		context string
		ok      bool
	}{
		{"id only", "user_id:user123", "user123", "", true},
		{"id with context", "user_id:user123 film horror preferiti", "user123", "film horror preferiti", true},
		{"missing prefix", "user123 horror", "", "", false},
		{"empty id", "user_id: horror", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, contextQuery, ok := parseHistoryInput(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.userID, userID)
			assert.Equal(t, tt.context, contextQuery)
		})
	}
}
