// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/moviechat/moviechat/services/assistant/tools"
)

// GenericApology is the last-resort answer when even the fallback search
// fails. Every turn returns text; this is the floor.
const GenericApology = "Mi dispiace, sto avendo difficoltà tecniche. Riprova tra qualche istante."

// fallbackSuggestions is returned when no topical keywords can be
// extracted from the input.
const fallbackSuggestions = "Mi dispiace per l'inconveniente tecnico. Posso aiutarti a trovare film su Netflix!\n" +
	"Prova a chiedermi:\n" +
	"- Film di un genere specifico (thriller, commedia, drama, etc.)\n" +
	"- Consigli basati sui tuoi gusti\n" +
	"- Informazioni su film specifici\n" +
	"- Ricerche per attori o registi"

// maxFallbackKeywords bounds the keyword query handed to the catalog.
const maxFallbackKeywords = 6

// stopwords dropped during keyword extraction, Italian plus the English
// fillers that show up in mixed-language requests.
var stopwords = map[string]struct{}{
	"il": {}, "lo": {}, "la": {}, "i": {}, "gli": {}, "le": {}, "un": {}, "una": {}, "uno": {},
	"di": {}, "da": {}, "del": {}, "della": {}, "dei": {}, "delle": {}, "che": {}, "con": {},
	"per": {}, "su": {}, "in": {}, "e": {}, "o": {}, "ma": {}, "mi": {}, "ti": {}, "ci": {},
	"non": {}, "sono": {}, "sei": {}, "sia": {}, "come": {}, "cosa": {}, "quale": {}, "quali": {},
	"vorrei": {}, "voglio": {}, "puoi": {}, "consigli": {}, "consigliami": {}, "qualche": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "and": {}, "or": {}, "some": {},
	"me": {}, "my": {}, "you": {}, "can": {}, "could": {}, "please": {}, "movie": {}, "movies": {},
	"film": {}, "films": {},
}

// Fallback is the deterministic recovery path for turns the reasoning loop
// could not finish: one direct catalog search over extracted keywords,
// else a fixed apology. No model reasoning is involved.
type Fallback struct {
	catalog tools.Tool
}

// NewFallback creates the fallback over the catalog search tool.
func NewFallback(catalog tools.Tool) *Fallback {
	return &Fallback{catalog: catalog}
}

// Answer produces the degraded answer for a failed turn. It never returns
// an empty string and never returns an error.
func (f *Fallback) Answer(ctx context.Context, turn tools.TurnContext, userMessage string) string {
	keywords := extractKeywords(userMessage)
	if len(keywords) == 0 {
		return fallbackSuggestions
	}

	query := strings.Join(keywords, " ")
	slog.Info("Running fallback catalog search", "query", query)

	result, err := f.catalog.Run(ctx, turn, query)
	if err != nil {
		slog.Warn("Fallback catalog search failed", "error", err)
		return GenericApology
	}

	return "Ecco alcuni suggerimenti di film che potrebbero interessarti:\n\n" + result
}

// extractKeywords keeps the topical words of the message: lowercase,
// punctuation stripped, stopwords and short tokens dropped.
func extractKeywords(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !isWordRune(r)
	})

	keywords := make([]string, 0, maxFallbackKeywords)
	for _, word := range fields {
		if len(word) < 3 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == maxFallbackKeywords {
			break
		}
	}
	return keywords
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r >= 0x00C0 && r <= 0x024F: // accented latin
		return true
	}
	return false
}
