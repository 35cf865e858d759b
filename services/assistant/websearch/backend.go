// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package websearch provides the external research backends queried in
// parallel during a web research action.
package websearch

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// apiKeyFromEnv reads a credential from the environment, falling back to a
// container secret file. Both are trimmed; secret files usually carry a
// trailing newline that would corrupt headers and request bodies.
func apiKeyFromEnv(envVar, secretPath string) string {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v
	}
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// Result is a single hit from an external backend.
type Result struct {
	Title   string
	URL     string
	Content string
}

// SearchBackend is one external source of opinions and reviews. Implementations
// must be safe for concurrent use and must honor ctx cancellation.
type SearchBackend interface {
	// Name identifies the backend in merged payloads and error messages.
	Name() string

	// Search returns up to maxResults hits for the query. An empty slice
	// is a valid outcome, not an error.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// BackendError wraps a backend failure with the backend that produced it so
// the aggregator can report which source degraded.
type BackendError struct {
	Source string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend '%s' failed: %v", e.Source, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// UnavailableBackend stands in for a backend whose credentials are missing
// at startup. Every search fails with the configuration reason, which the
// aggregator's fault isolation turns into an empty tagged block, so the
// service still runs with whatever sources are configured.
type UnavailableBackend struct {
	name   string
	reason error
}

// NewUnavailableBackend creates the stand-in.
func NewUnavailableBackend(name string, reason error) *UnavailableBackend {
	return &UnavailableBackend{name: name, reason: reason}
}

func (u *UnavailableBackend) Name() string { return u.name }

func (u *UnavailableBackend) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	return nil, &BackendError{Source: u.name, Err: u.reason}
}

// FormatResults renders backend hits as a tagged context block for the
// synthesis prompt. Each hit is capped so one verbose page cannot crowd
// out the others.
func FormatResults(source string, results []Result) string {
	const maxContentLen = 600

	var b strings.Builder
	fmt.Fprintf(&b, "=== Fonte: %s ===\n", source)
	for i, r := range results {
		content := strings.TrimSpace(r.Content)
		if len(content) > maxContentLen {
			content = content[:maxContentLen] + "..."
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n", i+1, r.Title, content)
		if r.URL != "" {
			fmt.Fprintf(&b, "(%s)\n", r.URL)
		}
	}
	return b.String()
}
