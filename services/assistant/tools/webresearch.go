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
	"time"

	"github.com/moviechat/moviechat/services/assistant/observability"
	"github.com/moviechat/moviechat/services/assistant/websearch"
)

// Per-backend result caps, matching the noise profile of each source.
const (
	defaultGeneralMaxResults   = 6
	defaultCommunityMaxResults = 8
)

// BothBackendsDownAnswer is returned without synthesis when both sources
// failed outright. A single-source failure, or sources that are reachable
// but find nothing, never triggers it.
const BothBackendsDownAnswer = "Al momento non riesco a consultare le fonti web per questa ricerca. " +
	"Posso comunque aiutarti con il catalogo Netflix: prova a chiedermi dei film disponibili."

// WebResearchTool fans one standalone query out to a general web backend
// and a community-discussion backend, merges the hits, and synthesizes a
// spoiler-free summary.
//
// # Description
//
// The two backend calls run concurrently and are joined before synthesis;
// each carries its own timeout. A failure in one backend yields an empty
// tagged block plus an error note for that source only and never fails the
// other backend or the overall run.
//
// # Thread Safety
//
// WebResearchTool is safe for concurrent use.
type WebResearchTool struct {
	contextualizer *Contextualizer
	synthesizer    *Synthesizer
	general        websearch.SearchBackend
	community      websearch.SearchBackend
	backendTimeout time.Duration
}

// NewWebResearchTool creates the tool. backendTimeout bounds each backend
// call independently; values <= 0 fall back to 15 seconds.
func NewWebResearchTool(contextualizer *Contextualizer, synthesizer *Synthesizer, general, community websearch.SearchBackend, backendTimeout time.Duration) *WebResearchTool {
	if backendTimeout <= 0 {
		backendTimeout = 15 * time.Second
	}
	return &WebResearchTool{
		contextualizer: contextualizer,
		synthesizer:    synthesizer,
		general:        general,
		community:      community,
		backendTimeout: backendTimeout,
	}
}

func (t *WebResearchTool) Name() string { return WebResearchToolName }

func (t *WebResearchTool) Description() string {
	return "Ricerca web su film: critica, recensioni e discussioni della community. " +
		"Usa una standalone query history-aware e restituisce una sintesi in italiano senza spoiler. " +
		"Da usare per informazioni su film o attori non presenti nel catalogo Netflix."
}

type backendOutcome struct {
	source  string
	results []websearch.Result
	err     error
}

// Run executes one research round: contextualize, fan out, join, synthesize.
func (t *WebResearchTool) Run(ctx context.Context, turn TurnContext, input string) (string, error) {
	ctx, span := toolsTracer.Start(ctx, "WebResearch")
	defer span.End()

	standalone, err := t.contextualizer.Rewrite(ctx, turn.History, input)
	if err != nil {
		return "", err
	}

	// Fan out to both backends, join before synthesis.
	generalOut := t.runBackend(ctx, t.general, standalone, defaultGeneralMaxResults)
	communityOut := t.runBackend(ctx, t.community, standalone, defaultCommunityMaxResults)
	general := <-generalOut
	community := <-communityOut

	generalBlock := renderOutcome(general)
	communityBlock := renderOutcome(community)

	if general.err != nil && community.err != nil {
		slog.Warn("All web research backends failed",
			"generalErr", general.err, "communityErr", community.err)
		return BothBackendsDownAnswer, nil
	}

	return t.synthesizer.SynthesizeWeb(ctx, input, standalone, turn.History, generalBlock, communityBlock)
}

// runBackend launches one backend under its own timeout. The returned
// channel receives exactly one outcome; a failure is captured in the
// outcome, never panicked or propagated.
func (t *WebResearchTool) runBackend(ctx context.Context, backend websearch.SearchBackend, query string, maxResults int) <-chan backendOutcome {
	out := make(chan backendOutcome, 1)
	go func() {
		defer close(out)

		backendCtx, cancel := context.WithTimeout(ctx, t.backendTimeout)
		defer cancel()

		results, err := backend.Search(backendCtx, query, maxResults)
		if err != nil {
			slog.Warn("Web research backend failed, continuing with partial results",
				"backend", backend.Name(), "error", err)
			observability.WebBackendErrors.WithLabelValues(backend.Name()).Inc()
			out <- backendOutcome{source: backend.Name(), err: err}
			return
		}
		out <- backendOutcome{source: backend.Name(), results: results}
	}()
	return out
}

func renderOutcome(outcome backendOutcome) string {
	if outcome.err != nil {
		return fmt.Sprintf("=== Fonte: %s ===\n(nessun risultato: la fonte non era raggiungibile)\n", outcome.source)
	}
	if len(outcome.results) == 0 {
		return fmt.Sprintf("=== Fonte: %s ===\n(nessun risultato trovato)\n", outcome.source)
	}
	return websearch.FormatResults(outcome.source, outcome.results)
}
