// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

// UserProfileRecord is one past-conversation summary for a user, as stored
// in the UserProfile class. A user may have several records, one per past
// conversation; retrieval ranks them semantically and filters on the exact
// user id.
type UserProfileRecord struct {
	UserId         string   `json:"user_id"`
	UserName       string   `json:"user_name"`
	ConversationAt string   `json:"conversation_date"`
	Preferences    []string `json:"preferences"`
	DiscussedFilms []string `json:"discussed_films"`
	Summary        string   `json:"conversation_summary"`
	PreferredMoods []string `json:"preferred_moods"`
	LikedGenres    []string `json:"liked_genres"`
	DislikedGenres []string `json:"disliked_genres"`
}

// UserProfileFromDocument converts a retrieved document into a profile
// record. The summary lives in the page content; the rest is metadata.
func UserProfileFromDocument(doc schema.Document) UserProfileRecord {
	meta := doc.Metadata
	return UserProfileRecord{
		UserId:         metaString(meta, "user_id"),
		UserName:       metaString(meta, "user_name"),
		ConversationAt: metaString(meta, "conversation_date"),
		Preferences:    splitList(metaString(meta, "preferences")),
		DiscussedFilms: splitList(metaString(meta, "discussed_films")),
		PreferredMoods: splitList(metaString(meta, "preferred_moods")),
		LikedGenres:    splitList(metaString(meta, "liked_genres")),
		DislikedGenres: splitList(metaString(meta, "disliked_genres")),
		Summary:        strings.TrimSpace(doc.PageContent),
	}
}

// FormatSummary renders the record as one numbered item of the history
// block handed back to the agent as an observation.
func (r *UserProfileRecord) FormatSummary(index int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s (%s)\n", index, r.UserName, r.ConversationAt)
	if len(r.Preferences) > 0 {
		fmt.Fprintf(&b, "   Preferenze: %s\n", strings.Join(truncateList(r.Preferences, 3), ", "))
	}
	if len(r.DiscussedFilms) > 0 {
		fmt.Fprintf(&b, "   Film discussi: %s\n", strings.Join(truncateList(r.DiscussedFilms, 2), ", "))
	}
	if r.Summary != "" {
		summary := r.Summary
		if len(summary) > 200 {
			summary = summary[:200] + "..."
		}
		fmt.Fprintf(&b, "   Riassunto: %s\n", summary)
	}
	return b.String()
}

func truncateList(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	return items[:max]
}
