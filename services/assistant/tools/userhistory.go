// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/assistant/retrieval"
)

// userHistoryK is fixed: at most three past-conversation summaries per lookup.
const userHistoryK = 3

// defaultHistoryQuery ranks records when the model supplies no context.
const defaultHistoryQuery = "conversazioni utente"

// userHistoryUsage is returned when the argument does not carry a user id.
// It is an observation, not an error: the model can correct itself on the
// next step.
const userHistoryUsage = "Specifica user_id nel formato: user_id:USER_ID [contesto opzionale]"

// UserHistoryTool retrieves past-conversation summaries for one user.
//
// # Description
//
// The argument format is "user_id:USER_ID [optional context]". Lookup is an
// exact filter on user_id plus a semantic ranking on the context. An empty
// result is the first-meeting case and produces a message distinct from any
// error wording.
//
// # Thread Safety
//
// UserHistoryTool is safe for concurrent use.
type UserHistoryTool struct {
	store retrieval.DocumentStore
}

// NewUserHistoryTool creates the tool over the given store.
func NewUserHistoryTool(store retrieval.DocumentStore) *UserHistoryTool {
	return &UserHistoryTool{store: store}
}

func (t *UserHistoryTool) Name() string { return UserHistoryToolName }

func (t *UserHistoryTool) Description() string {
	return "Retrieve user's old conversation summaries for personalized recommendations. " +
		"Use format: 'user_id:USER_ID [optional_context]'. Example: 'user_id:user123 horror preferences'"
}

// FirstMeetingMessage is the observation for a user with no stored records.
func FirstMeetingMessage(userID string) string {
	return fmt.Sprintf("Primo incontro con l'utente %s: nessuna conversazione precedente registrata.", userID)
}

// Run executes one history lookup.
func (t *UserHistoryTool) Run(ctx context.Context, turn TurnContext, input string) (string, error) {
	ctx, span := toolsTracer.Start(ctx, "UserHistoryLookup")
	defer span.End()

	userID, contextQuery, ok := parseHistoryInput(input)
	if !ok {
		// Fall back to the turn's own user id when the model forgot the prefix.
		if turn.UserID == "" {
			return userHistoryUsage, nil
		}
		userID, contextQuery = turn.UserID, strings.TrimSpace(input)
	}

	query := contextQuery
	if query == "" {
		query = defaultHistoryQuery
	}

	docs, err := t.store.SimilaritySearch(ctx, datatypes.UserProfileClass, query, userHistoryK,
		[]retrieval.Filter{{Key: "user_id", Value: userID}})
	if err != nil {
		return "", fmt.Errorf("user history lookup failed: %w", err)
	}

	records := make([]datatypes.UserProfileRecord, 0, len(docs))
	for _, doc := range docs {
		record := datatypes.UserProfileFromDocument(doc)
		// The store filter should make this impossible; drop silently if not.
		if record.UserId != userID {
			slog.Warn("Dropping history record with mismatched user id", "requested", userID, "got", record.UserId)
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		slog.Info("First meeting with user", "userID", userID)
		return FirstMeetingMessage(userID), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "STORICO CONVERSAZIONI - Utente %s:\n\n", userID)
	for i := range records {
		b.WriteString(records[i].FormatSummary(i + 1))
		b.WriteString("\n")
	}

	slog.Debug("User history lookup complete", "userID", userID, "records", len(records))
	return b.String(), nil
}

// parseHistoryInput splits "user_id:USER_ID [context]" into its parts.
func parseHistoryInput(input string) (userID, contextQuery string, ok bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "user_id:") {
		return "", "", false
	}

	rest := strings.TrimPrefix(trimmed, "user_id:")
	parts := strings.SplitN(rest, " ", 2)
	userID = strings.TrimSpace(parts[0])
	if userID == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		contextQuery = strings.TrimSpace(parts[1])
	}
	return userID, contextQuery, true
}
