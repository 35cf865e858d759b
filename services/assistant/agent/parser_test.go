// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/assistant/tools"
)

func TestParseModelOutput_Action(t *testing.T) {
	raw := "Thought: I need to search for tension movies in the database\n" +
		"Action: movie_database_search\n" +
		"Action Input: \"tension thriller movies\"\n"

	outcome := ParseModelOutput(raw)
	require.False(t, outcome.Malformed, "reason: %s", outcome.Reason)
	require.Equal(t, datatypes.StepAction, outcome.Step.Kind)
	assert.Equal(t, tools.CatalogSearchToolName, outcome.Step.Action.ToolName)
	assert.Equal(t, "tension thriller movies", outcome.Step.Action.Input)
	assert.Equal(t, "I need to search for tension movies in the database", outcome.Step.Thought)
}

func TestParseModelOutput_FinalAnswer(t *testing.T) {
	raw := "Thought: I can answer now\n" +
		"Final Answer: Ecco alcuni film di tensione che potrebbero interessarti."

	outcome := ParseModelOutput(raw)
	require.False(t, outcome.Malformed)
	require.Equal(t, datatypes.StepFinalAnswer, outcome.Step.Kind)
	assert.Equal(t, "Ecco alcuni film di tensione che potrebbero interessarti.", outcome.Step.FinalAnswer)
}

func TestParseModelOutput_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{"empty output", "   \n  ", "empty model output"},
		{"no markers at all", "qualche testo libero", "no action or final answer"},
		{"action without input", "Thought: hm\nAction: movie_database_search\n", "action without input"},
		{"unquoted action input", "Action: movie_database_search\nAction Input: tension movies\n", "action input not a quoted string"},
		{"empty final answer", "Thought: done\nFinal Answer:   ", "empty final answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := ParseModelOutput(tt.raw)
			require.True(t, outcome.Malformed)
			assert.Equal(t, tt.reason, outcome.Reason)
			assert.Equal(t, tt.raw, outcome.Raw)
		})
	}
}

func TestParseModelOutput_SingleQuotedInput(t *testing.T) {
	outcome := ParseModelOutput("Action: web_movie_research\nAction Input: 'recensioni Oppenheimer'\n")
	require.False(t, outcome.Malformed)
	assert.Equal(t, "recensioni Oppenheimer", outcome.Step.Action.Input)
}

func TestLooksLikeAnswer(t *testing.T) {
	t.Run("plain prose is promoted", func(t *testing.T) {
		raw := "Ecco alcuni film di tensione disponibili su Netflix che potrebbero piacerti molto."
		answer, ok := LooksLikeAnswer(raw)
		require.True(t, ok)
		assert.Equal(t, raw, answer)
	})

	t.Run("protocol fragments disqualify", func(t *testing.T) {
		_, ok := LooksLikeAnswer("Action: movie_database_search\nqualche testo dopo che sembra una risposta completa")
		assert.False(t, ok)
	})

	t.Run("bare thought is not an answer", func(t *testing.T) {
		_, ok := LooksLikeAnswer("Thought: I should search the database for thriller movies next")
		assert.False(t, ok)
	})

	t.Run("short fragments are not answers", func(t *testing.T) {
		_, ok := LooksLikeAnswer("va bene")
		assert.False(t, ok)
	})

	t.Run("thought lines are stripped from promoted text", func(t *testing.T) {
		answer, ok := LooksLikeAnswer("Thought: rispondo subito\nTi consiglio Inception, un thriller psicologico disponibile su Netflix.")
		require.True(t, ok)
		assert.Equal(t, "Ti consiglio Inception, un thriller psicologico disponibile su Netflix.", answer)
	})
}
