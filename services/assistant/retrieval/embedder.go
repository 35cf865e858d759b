// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const maxEmbedLength = 8192

// OpenAIEmbedder implements EmbeddingProvider using the OpenAI embeddings
// endpoint. The model must match the one used at catalog ingestion time or
// distances are meaningless.
//
// # Thread Safety
//
// OpenAIEmbedder is safe for concurrent use.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder from the environment.
//
// # Inputs
//
//   - OPENAI_API_KEY: required (env var or /run/secrets/openai_api_key).
//   - OPENAI_EMBEDDING_MODEL: optional, defaults to text-embedding-3-small.
//
// # Outputs
//
//   - *OpenAIEmbedder: Ready to use embedder.
//   - error: Non-nil if no API key could be found.
func NewOpenAIEmbedder() (*OpenAIEmbedder, error) {
	apiKey := apiKeyFromEnv("OPENAI_API_KEY", "/run/secrets/openai_api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set and secret file missing")
	}

	model := openai.EmbeddingModel(os.Getenv("OPENAI_EMBEDDING_MODEL"))
	if model == "" {
		model = openai.SmallEmbedding3
		slog.Warn("OPENAI_EMBEDDING_MODEL not set, using default", "model", model)
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// apiKeyFromEnv reads a credential from the environment, falling back to a
// container secret file. Both are trimmed; a secret file's trailing newline
// would otherwise end up in the Authorization header and break every call.
func apiKeyFromEnv(envVar, secretPath string) string {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v
	}
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// Embed computes a vector embedding for the given text. Text longer than
// maxEmbedLength bytes is truncated before the call.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxEmbedLength {
		slog.Debug("Truncating text for embedding", "originalLen", len(text), "truncatedLen", maxEmbedLength)
		text = text[:maxEmbedLength]
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}

	return resp.Data[0].Embedding, nil
}
