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

	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/assistant/retrieval"
)

// DefaultCatalogK is the number of catalog entries retrieved per search.
const DefaultCatalogK = 5

// CatalogNoMatchAnswer is returned when the search finds nothing. A title
// absent from the catalog is not on Netflix; the wording says so without
// inventing a URL.
const CatalogNoMatchAnswer = "Non ho trovato film corrispondenti nel catalogo Netflix. " +
	"Se il titolo che cerchi non compare, non è disponibile su Netflix. " +
	"Prova a descrivere il genere o l'atmosfera che ti interessa."

// CatalogSearchTool retrieves catalog entries semantically and synthesizes
// an answer grounded only in what was retrieved.
//
// # Description
//
// One run is contextualize, retrieve, synthesize: the raw argument plus the
// turn history become a standalone query, the query runs against the Film
// class (optionally narrowed by a metadata filter), and the ranked entries
// feed the catalog synthesis prompt. No side effects.
//
// # Thread Safety
//
// CatalogSearchTool is safe for concurrent use.
type CatalogSearchTool struct {
	store          retrieval.DocumentStore
	contextualizer *Contextualizer
	synthesizer    *Synthesizer
	k              int
	filter         []retrieval.Filter
}

// NewCatalogSearchTool creates the tool. k values < 1 fall back to
// DefaultCatalogK; filter may be nil.
func NewCatalogSearchTool(store retrieval.DocumentStore, contextualizer *Contextualizer, synthesizer *Synthesizer, k int, filter []retrieval.Filter) *CatalogSearchTool {
	if k < 1 {
		k = DefaultCatalogK
	}
	return &CatalogSearchTool{
		store:          store,
		contextualizer: contextualizer,
		synthesizer:    synthesizer,
		k:              k,
		filter:         filter,
	}
}

func (t *CatalogSearchTool) Name() string { return CatalogSearchToolName }

func (t *CatalogSearchTool) Description() string {
	return "Search Netflix movie database using plot descriptions, mood, genres, directors, and actors. " +
		"Use to look if a movie is in the Netflix database. " +
		"If information about a film is not present in the database, it is NOT available on Netflix. " +
		"If this tool gives any info about a film, the film IS available on Netflix. " +
		"Returns availability info and Netflix URLs when present. Answers in Italian."
}

// Run executes one catalog search.
//
// # Outputs
//
//   - string: The synthesized answer, or CatalogNoMatchAnswer when nothing
//     matched.
//   - error: Non-nil on contextualization failure, store unavailability
//     (retrieval.ErrStoreUnavailable in the chain), or synthesis failure.
//     Results are never fabricated on error.
func (t *CatalogSearchTool) Run(ctx context.Context, turn TurnContext, input string) (string, error) {
	ctx, span := toolsTracer.Start(ctx, "CatalogSearch")
	defer span.End()

	standalone, err := t.contextualizer.Rewrite(ctx, turn.History, input)
	if err != nil {
		return "", err
	}

	docs, err := t.store.SimilaritySearch(ctx, datatypes.FilmClass, standalone, t.k, t.filter)
	if err != nil {
		return "", fmt.Errorf("catalog retrieval failed: %w", err)
	}

	if len(docs) == 0 {
		slog.Info("Catalog search found no entries", "query", standalone)
		return CatalogNoMatchAnswer, nil
	}

	entries := make([]datatypes.CatalogEntry, 0, len(docs))
	for _, doc := range docs {
		entry := datatypes.CatalogEntryFromDocument(doc)
		if err := entry.Validate(); err != nil {
			slog.Warn("Dropping catalog entry with inconsistent metadata", "title", entry.Title, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return CatalogNoMatchAnswer, nil
	}

	slog.Debug("Catalog search retrieved entries", "query", standalone, "count", len(entries))
	return t.synthesizer.SynthesizeCatalog(ctx, standalone, turn.History, entries)
}
