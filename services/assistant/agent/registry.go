// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"fmt"
	"strings"

	"github.com/moviechat/moviechat/services/assistant/tools"
)

// Registry is the closed set of actions the reasoning loop may take. The
// three tools are fixed at construction; lookup by any other name fails.
type Registry struct {
	ordered []tools.Tool
	byName  map[string]tools.Tool
}

// NewRegistry builds the registry from exactly the three known tools. The
// order given here is the order they are presented in the prompt.
func NewRegistry(catalog, webResearch, userHistory tools.Tool) *Registry {
	ordered := []tools.Tool{catalog, webResearch, userHistory}
	byName := make(map[string]tools.Tool, len(ordered))
	for _, t := range ordered {
		byName[t.Name()] = t
	}
	return &Registry{ordered: ordered, byName: byName}
}

// Lookup resolves a tool by its exact name.
func (r *Registry) Lookup(name string) (tools.Tool, bool) {
	t, ok := r.byName[strings.TrimSpace(name)]
	return t, ok
}

// Names lists the tool names in presentation order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, t := range r.ordered {
		names = append(names, t.Name())
	}
	return names
}

// Describe renders the name/description block injected into the prompt.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, t := range r.ordered {
		fmt.Fprintf(&b, "%s: %s\n", t.Name(), t.Description())
	}
	return b.String()
}

// Catalog returns the catalog search tool, used directly by the fallback
// path without going through the reasoning loop.
func (r *Registry) Catalog() tools.Tool {
	return r.ordered[0]
}
