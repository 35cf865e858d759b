// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/assistant/tools"
	"github.com/moviechat/moviechat/services/llm"
)

// scriptedLLM replays a fixed sequence of completions. After the script
// runs out it keeps returning the last entry.
type scriptedLLM struct {
	outputs []string
	err     error
	calls   int
	prompts []string
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls - 1
	if idx >= len(s.outputs) {
		idx = len(s.outputs) - 1
	}
	return s.outputs[idx], nil
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []datatypes.Message, params llm.GenerationParams) (string, error) {
	return s.Generate(ctx, "", params)
}

// stubTool returns a fixed observation, or an error, and records its inputs.
type stubTool struct {
	name   string
	result string
	err    error
	inputs []string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub tool for " + s.name }

func (s *stubTool) Run(ctx context.Context, turn tools.TurnContext, input string) (string, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

func newTestRegistry(catalog, web, history *stubTool) *Registry {
	return NewRegistry(catalog, web, history)
}

func defaultStubs() (*stubTool, *stubTool, *stubTool) {
	return &stubTool{name: tools.CatalogSearchToolName, result: "Inception (2010) incluso nell'abbonamento."},
		&stubTool{name: tools.WebResearchToolName, result: "La critica apprezza il film."},
		&stubTool{name: tools.UserHistoryToolName, result: "Primo incontro con l'utente user1."}
}

func TestLoop_DirectFinalAnswer(t *testing.T) {
	client := &scriptedLLM{outputs: []string{
		"Thought: I can answer directly\nFinal Answer: Ciao! Posso consigliarti film su Netflix.",
	}}
	catalog, web, history := defaultStubs()
	loop := NewLoop(client, newTestRegistry(catalog, web, history))

	answer, err := loop.Run(context.Background(), tools.TurnContext{UserID: "user1"}, "ciao")
	require.NoError(t, err)
	assert.Equal(t, "Ciao! Posso consigliarti film su Netflix.", answer)
	assert.Equal(t, 1, client.calls)
}

func TestLoop_ActionThenFinalAnswer(t *testing.T) {
	client := &scriptedLLM{outputs: []string{
		"Thought: search the catalog\nAction: movie_database_search\nAction Input: \"thriller tensione\"",
		"Thought: now I can answer\nFinal Answer: Ti consiglio Inception.",
	}}
	catalog, web, history := defaultStubs()
	loop := NewLoop(client, newTestRegistry(catalog, web, history))

	answer, err := loop.Run(context.Background(), tools.TurnContext{UserID: "user1"}, "film di tensione")
	require.NoError(t, err)
	assert.Equal(t, "Ti consiglio Inception.", answer)
	require.Equal(t, []string{"thriller tensione"}, catalog.inputs)

	// The observation must be visible to the second reasoning step.
	require.Len(t, client.prompts, 2)
	assert.Contains(t, client.prompts[1], "Observation: "+catalog.result)
}

func TestLoop_IterationBudget(t *testing.T) {
	// The model never emits a final answer.
	client := &scriptedLLM{outputs: []string{
		"Thought: keep searching\nAction: movie_database_search\nAction Input: \"ancora film\"",
	}}
	catalog, web, history := defaultStubs()
	loop := NewLoop(client, newTestRegistry(catalog, web, history))

	_, err := loop.Run(context.Background(), tools.TurnContext{UserID: "user1"}, "film")
	require.ErrorIs(t, err, ErrIterationBudget)
	assert.Equal(t, MaxIterations, client.calls)
}

func TestLoop_GenerationFailure(t *testing.T) {
	client := &scriptedLLM{err: errors.New("quota exceeded")}
	catalog, web, history := defaultStubs()
	loop := NewLoop(client, newTestRegistry(catalog, web, history))

	_, err := loop.Run(context.Background(), tools.TurnContext{UserID: "user1"}, "film")
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
}

func TestLoop_MalformedPromotedToAnswer(t *testing.T) {
	client := &scriptedLLM{outputs: []string{
		"Ecco alcuni film di tensione disponibili su Netflix: Inception e Get Out, entrambi molto apprezzati.",
	}}
	catalog, web, history := defaultStubs()
	loop := NewLoop(client, newTestRegistry(catalog, web, history))

	answer, err := loop.Run(context.Background(), tools.TurnContext{UserID: "user1"}, "film di tensione")
	require.NoError(t, err)
	assert.Contains(t, answer, "Inception")
}

func TestLoop_MalformedTriggersCorrectiveSearch(t *testing.T) {
	client := &scriptedLLM{outputs: []string{
		"Thought: hm",
		"Thought: good, I have results\nFinal Answer: Ti consiglio Inception.",
	}}
	catalog, web, history := defaultStubs()
	loop := NewLoop(client, newTestRegistry(catalog, web, history))

	answer, err := loop.Run(context.Background(), tools.TurnContext{UserID: "user1"}, "[USER_ID: user1] film di tensione")
	require.NoError(t, err)
	assert.Equal(t, "Ti consiglio Inception.", answer)

	// The corrective step ran one catalog search over the original message,
	// with the routing tag stripped from the semantic query.
	require.Equal(t, []string{"film di tensione"}, catalog.inputs)
	require.Len(t, client.prompts, 2)
	assert.Contains(t, client.prompts[1], catalog.result)
}

func TestLoop_ToolErrorBecomesObservation(t *testing.T) {
	client := &scriptedLLM{outputs: []string{
		"Action: movie_database_search\nAction Input: \"thriller\"",
		"Final Answer: Mi dispiace, il catalogo non risponde al momento.",
	}}
	catalog, web, history := defaultStubs()
	catalog.err = fmt.Errorf("store unreachable")
	loop := NewLoop(client, newTestRegistry(catalog, web, history))

	answer, err := loop.Run(context.Background(), tools.TurnContext{UserID: "user1"}, "thriller")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.Contains(t, client.prompts[1], "Errore dello strumento")
}

func TestLoop_UnknownToolObservation(t *testing.T) {
	client := &scriptedLLM{outputs: []string{
		"Action: imdb_search\nAction Input: \"inception\"",
		"Final Answer: Uso solo gli strumenti disponibili.",
	}}
	catalog, web, history := defaultStubs()
	loop := NewLoop(client, newTestRegistry(catalog, web, history))

	_, err := loop.Run(context.Background(), tools.TurnContext{UserID: "user1"}, "inception")
	require.NoError(t, err)
	assert.Contains(t, client.prompts[1], "Strumento sconosciuto 'imdb_search'")
	assert.Empty(t, catalog.inputs)
}
