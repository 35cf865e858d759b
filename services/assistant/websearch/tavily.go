// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	tavilyBaseURL = "https://api.tavily.com/search"

	// Appended to every query so generic film titles surface critical
	// coverage instead of showtimes and merchandise.
	tavilyQuerySuffix = " movie reviews critics analysis"
)

// TavilyBackend searches the web through the Tavily API.
//
// # Thread Safety
//
// TavilyBackend is safe for concurrent use.
type TavilyBackend struct {
	apiKey     string
	httpClient *http.Client
}

// NewTavilyBackend creates a backend from the environment.
//
// # Inputs
//
//   - TAVILY_API_KEY: required (env var or /run/secrets/tavily_api_key).
//
// # Outputs
//
//   - *TavilyBackend: Ready to use backend.
//   - error: Non-nil if no API key could be found.
func NewTavilyBackend() (*TavilyBackend, error) {
	apiKey := apiKeyFromEnv("TAVILY_API_KEY", "/run/secrets/tavily_api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set and secret file missing")
	}

	return &TavilyBackend{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

func (t *TavilyBackend) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search queries Tavily with the film-review suffix appended.
func (t *TavilyBackend) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	payload := tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query + tavilyQuerySuffix,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &BackendError{Source: t.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyBaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Source: t.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{Source: t.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &BackendError{Source: t.Name(), Err: fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))}
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &BackendError{Source: t.Name(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}

	slog.Debug("Tavily search complete", "query", query, "results", len(results))
	return results, nil
}
