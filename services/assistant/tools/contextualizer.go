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

	"go.opentelemetry.io/otel"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/llm"
)

var toolsTracer = otel.Tracer("moviechat.tools")

const contextualizeInstruction = "Given a chat history and the latest user question which might reference context " +
	"in the chat history, formulate a standalone question which can be understood " +
	"without the chat history. Do NOT answer the question; return only the rewritten query."

// Contextualizer rewrites a raw turn input into a standalone query with all
// references to prior turns resolved.
//
// # Description
//
// Both retrieval paths share one contextualizer so "similar ones by the same
// director" resolves identically whether it ends up in the catalog or on the
// web. With empty history the input is already standalone and no model call
// is made.
//
// # Thread Safety
//
// Contextualizer is safe for concurrent use.
type Contextualizer struct {
	client llm.LLMClient
}

// NewContextualizer creates a contextualizer over the given model client.
func NewContextualizer(client llm.LLMClient) *Contextualizer {
	return &Contextualizer{client: client}
}

// Rewrite produces the standalone query for input given the prior turns.
//
// # Outputs
//
//   - string: The standalone query. With empty history, the trimmed input.
//   - error: Non-nil if the model call fails. No guessed rewrite is
//     returned in that case; the caller decides how to degrade.
func (c *Contextualizer) Rewrite(ctx context.Context, history []datatypes.Message, input string) (string, error) {
	ctx, span := toolsTracer.Start(ctx, "ContextualizeQuery")
	defer span.End()

	trimmed := strings.TrimSpace(input)
	if len(history) == 0 {
		return trimmed, nil
	}

	messages := make([]datatypes.Message, 0, len(history)+2)
	messages = append(messages, datatypes.Message{Role: datatypes.RoleSystem, Content: contextualizeInstruction})
	messages = append(messages, history...)
	messages = append(messages, datatypes.Message{Role: datatypes.RoleUser, Content: trimmed})

	rewritten, err := c.client.Chat(ctx, messages, llm.GenerationParams{})
	if err != nil {
		return "", fmt.Errorf("query contextualization failed: %w", err)
	}

	standalone := strings.TrimSpace(rewritten)
	if standalone == "" {
		slog.Warn("Contextualizer returned empty rewrite, keeping raw input", "input", trimmed)
		return trimmed, nil
	}

	slog.Debug("Contextualized query", "raw", trimmed, "standalone", standalone)
	return standalone, nil
}
