// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tools implements the three actions the reasoning loop can take:
// catalog search, web research, and user-history lookup, plus the shared
// contextualizer and synthesizer they delegate to.
package tools

import (
	"context"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

// Tool names as presented to the reasoning model. The set is closed; the
// registry rejects anything else.
const (
	CatalogSearchToolName = "movie_database_search"
	WebResearchToolName   = "web_movie_research"
	UserHistoryToolName   = "user_conversation_history"
)

// TurnContext carries the per-turn state every tool may need. It is
// assembled once by the agent at the start of a turn and passed by value.
type TurnContext struct {
	UserID  string
	History []datatypes.Message
}

// Tool is a single action available to the reasoning loop.
//
// Run takes the raw textual argument the model supplied and returns the
// observation text. An error means the tool could not produce a usable
// observation at all; partial or degraded results are returned as text.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, turn TurnContext, input string) (string, error)
}
