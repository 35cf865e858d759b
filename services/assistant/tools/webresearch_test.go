// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/assistant/websearch"
	"github.com/moviechat/moviechat/services/llm"
)

// cannedLLM returns the same completion for every call.
type cannedLLM struct {
	answer string
	err    error
	calls  int
}

func (c *cannedLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return c.Chat(ctx, nil, params)
}

func (c *cannedLLM) Chat(ctx context.Context, messages []datatypes.Message, params llm.GenerationParams) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

// fakeBackend serves canned results after an optional delay.
type fakeBackend struct {
	name    string
	results []websearch.Result
	err     error
	delay   time.Duration
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newWebTool(client llm.LLMClient, general, community websearch.SearchBackend) *WebResearchTool {
	return NewWebResearchTool(NewContextualizer(client), NewSynthesizer(client), general, community, 2*time.Second)
}

func TestWebResearch_FaultIsolation(t *testing.T) {
	client := &cannedLLM{answer: "Sintesi delle recensioni trovate."}
	general := &fakeBackend{name: "tavily", err: errors.New("api quota exceeded")}
	community := &fakeBackend{name: "reddit", results: []websearch.Result{
		{Title: "Best thrillers?", Content: "Lots of love for Inception."},
	}}

	tool := newWebTool(client, general, community)
	answer, err := tool.Run(context.Background(), TurnContext{UserID: "u1"}, "thriller psicologici")
	require.NoError(t, err)
	assert.Equal(t, "Sintesi delle recensioni trovate.", answer)
}

func TestWebResearch_BothBackendsDown(t *testing.T) {
	client := &cannedLLM{answer: "should not be used"}
	general := &fakeBackend{name: "tavily", err: errors.New("down")}
	community := &fakeBackend{name: "reddit", err: errors.New("down")}

	tool := newWebTool(client, general, community)
	answer, err := tool.Run(context.Background(), TurnContext{}, "qualsiasi film")
	require.NoError(t, err)
	assert.Equal(t, BothBackendsDownAnswer, answer)
	// Empty history means no contextualizer call, and no synthesis either.
	assert.Equal(t, 0, client.calls)
}

func TestWebResearch_SingleFailureWithEmptySiblingStillSynthesizes(t *testing.T) {
	client := &cannedLLM{answer: "Le fonti consultate non hanno trovato nulla di rilevante."}
	general := &fakeBackend{name: "tavily", err: errors.New("api quota exceeded")}
	community := &fakeBackend{name: "reddit"} // reachable, zero results

	tool := newWebTool(client, general, community)
	answer, err := tool.Run(context.Background(), TurnContext{}, "un film sconosciuto")
	require.NoError(t, err)

	// One source answered (with nothing), so this is a no-results turn,
	// not an unreachable-sources turn.
	assert.NotEqual(t, BothBackendsDownAnswer, answer)
	assert.Equal(t, "Le fonti consultate non hanno trovato nulla di rilevante.", answer)
	assert.Equal(t, 1, client.calls)
}

func TestWebResearch_BackendsRunConcurrently(t *testing.T) {
	client := &cannedLLM{answer: "sintesi"}
	delay := 150 * time.Millisecond
	general := &fakeBackend{name: "tavily", delay: delay, results: []websearch.Result{{Title: "a", Content: "b"}}}
	community := &fakeBackend{name: "reddit", delay: delay, results: []websearch.Result{{Title: "c", Content: "d"}}}

	tool := newWebTool(client, general, community)
	start := time.Now()
	_, err := tool.Run(context.Background(), TurnContext{}, "film")
	require.NoError(t, err)

	// Sequential execution would take at least twice the delay.
	assert.Less(t, time.Since(start), 2*delay)
}

func TestWebResearch_BackendTimeoutIsolated(t *testing.T) {
	client := &cannedLLM{answer: "sintesi dai risultati reddit"}
	general := &fakeBackend{name: "tavily", delay: 10 * time.Second, results: []websearch.Result{{Title: "slow"}}}
	community := &fakeBackend{name: "reddit", results: []websearch.Result{{Title: "fast", Content: "ok"}}}

	tool := NewWebResearchTool(NewContextualizer(client), NewSynthesizer(client), general, community, 100*time.Millisecond)
	answer, err := tool.Run(context.Background(), TurnContext{}, "film")
	require.NoError(t, err)
	assert.Equal(t, "sintesi dai risultati reddit", answer)
}

func TestWebResearch_ContextualizerFailurePropagates(t *testing.T) {
	client := &cannedLLM{err: errors.New("model down")}
	tool := newWebTool(client, &fakeBackend{name: "tavily"}, &fakeBackend{name: "reddit"})

	history := []datatypes.Message{{Role: datatypes.RoleUser, Content: "parlami di Inception"}}
	_, err := tool.Run(context.Background(), TurnContext{History: history}, "e il regista?")
	require.Error(t, err)
}
