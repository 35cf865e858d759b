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
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/llm"
)

const catalogSynthesisSystem = "You are the official Netflix movie recommendation assistant. " +
	"Use ONLY the retrieved movie information to answer the user's question about films.\n\n" +
	"RULES:\n" +
	"- Always mention availability (included/rental/unavailable) when present\n" +
	"- Include Netflix URLs for available movies\n" +
	"- Focus on mood, atmosphere and emotional impact\n" +
	"- Never spoil major plot twists or endings\n" +
	"- If a film is not in the database, it is not available on Netflix.\n" +
	"- Keep responses engaging but concise, at most three sentences per film\n" +
	"- Reply in Italian\n\n" +
	"RETRIEVED CONTEXT:\n{context}"

const webSynthesisSystem = "Sei un ricercatore cinematografico che analizza fonti web e community.\n" +
	"REGOLE:\n" +
	"- Riassumi in italiano, in modo conciso e strutturato.\n" +
	"- NON fare spoiler (evita colpi di scena/finali).\n" +
	"- Se emergono opinioni contrastanti, evidenziale brevemente.\n" +
	"- Cita la provenienza delle informazioni in modo descrittivo (es. 'critic reviews', 'Reddit users'), " +
	"senza URL a meno che non siano essenziali.\n" +
	"- Se i risultati sono scarsi o rumorosi, dillo esplicitamente e suggerisci ricerche aggiuntive.\n"

const webSynthesisHuman = "Richiesta originale: {input}\n\n" +
	"Standalone query: {standalone_query}\n\n" +
	"Risultati web (riassumi i punti chiave):\n{general}\n\n" +
	"Risultati community (topic ricorrenti, consenso/dissenso):\n{community}\n"

// Synthesizer turns retrieved context into the final answer text. It is a
// pure transformation: one model call, no retries, errors propagate.
type Synthesizer struct {
	client      llm.LLMClient
	catalogTmpl prompts.PromptTemplate
	webTmpl     prompts.PromptTemplate
}

// NewSynthesizer creates a synthesizer over the given model client.
func NewSynthesizer(client llm.LLMClient) *Synthesizer {
	return &Synthesizer{
		client:      client,
		catalogTmpl: prompts.NewPromptTemplate(catalogSynthesisSystem, []string{"context"}),
		webTmpl:     prompts.NewPromptTemplate(webSynthesisHuman, []string{"input", "standalone_query", "general", "community"}),
	}
}

// SynthesizeCatalog answers a catalog question from retrieved entries.
// Availability and canonical URLs come from the entry excerpts; the fixed
// instruction forbids quoting plot twists from the descriptions.
func (s *Synthesizer) SynthesizeCatalog(ctx context.Context, question string, history []datatypes.Message, entries []datatypes.CatalogEntry) (string, error) {
	excerpts := make([]string, 0, len(entries))
	for i := range entries {
		excerpts = append(excerpts, entries[i].FormatExcerpt())
	}

	system, err := s.catalogTmpl.Format(map[string]any{
		"context": strings.Join(excerpts, "\n---\n"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to format catalog prompt: %w", err)
	}

	messages := make([]datatypes.Message, 0, len(history)+2)
	messages = append(messages, datatypes.Message{Role: datatypes.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, datatypes.Message{Role: datatypes.RoleUser, Content: question})

	answer, err := s.client.Chat(ctx, messages, llm.GenerationParams{})
	if err != nil {
		return "", fmt.Errorf("catalog synthesis failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// SynthesizeWeb answers from the merged web research payload. The general
// and community blocks are already tagged by source; a failed backend shows
// up as an explicit error note inside its block.
func (s *Synthesizer) SynthesizeWeb(ctx context.Context, question, standaloneQuery string, history []datatypes.Message, generalBlock, communityBlock string) (string, error) {
	human, err := s.webTmpl.Format(map[string]any{
		"input":            question,
		"standalone_query": standaloneQuery,
		"general":          generalBlock,
		"community":        communityBlock,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format web research prompt: %w", err)
	}

	messages := make([]datatypes.Message, 0, len(history)+2)
	messages = append(messages, datatypes.Message{Role: datatypes.RoleSystem, Content: webSynthesisSystem})
	messages = append(messages, history...)
	messages = append(messages, datatypes.Message{Role: datatypes.RoleUser, Content: human})

	answer, err := s.client.Chat(ctx, messages, llm.GenerationParams{})
	if err != nil {
		return "", fmt.Errorf("web research synthesis failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
