// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides clients for the generation-model backends the
// assistant can run against. The concrete backend (OpenAI, Anthropic,
// Ollama) is selected at startup via LLM_BACKEND_TYPE; everything above
// this package talks to the LLMClient interface only.
package llm

import (
	"context"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

// GenerationParams carries optional sampling parameters. Nil pointers mean
// "use the backend default".
type GenerationParams struct {
	Temperature *float32 `json:"temperature,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// Both methods are synchronous request/response; callers bound latency via
// ctx. A non-nil error always means no usable text was produced; clients
// never return partial or guessed output.
type LLMClient interface {
	// Generate produces a completion for a single prompt string.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Chat produces a completion for an ordered message sequence. A leading
	// "system" role message becomes the system instruction where the
	// backend supports one.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)
}
