// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tmc/langchaingo/schema"
)

// Availability states for a catalog entry.
const (
	AvailabilityIncluded    = "included"
	AvailabilityRental      = "rental"
	AvailabilityUnavailable = "unavailable"
)

var movieValidate = validator.New()

// CatalogEntry is one film of the fixed catalog, as stored in the Film class
// of the vector store. The service never mutates entries; it only holds
// retrieved copies for the duration of a single turn.
//
// # Invariants
//
//   - RentalPrice is set if and only if Availability == "rental".
//   - NetflixURL is set if and only if Availability is "included" or "rental".
//
// Use Validate to enforce both before trusting an entry parsed from store
// metadata.
type CatalogEntry struct {
	Id              int      `json:"id"`
	Title           string   `json:"title" validate:"required"`
	ReleaseYear     int      `json:"release_year" validate:"gte=1880"`
	Director        string   `json:"director"`
	Genres          []string `json:"genres"`
	ImdbRating      float64  `json:"imdb_rating" validate:"gte=0,lte=10"`
	Cast            []string `json:"cast"`
	DurationMinutes int      `json:"duration_minutes"`
	Availability    string   `json:"availability_type" validate:"required,oneof=included rental unavailable"`
	RentalPrice     *float64 `json:"rental_price,omitempty"`
	MinimumPlan     string   `json:"minimum_plan,omitempty"`
	NetflixURL      string   `json:"netflix_url,omitempty"`

	// Content is the rich free-text description used for embedding
	// (mood, plot, directorial style). Kept out of the answer verbatim:
	// the synthesis prompt forbids quoting plot twists from it.
	Content string `json:"content,omitempty"`
}

// Validate checks field constraints plus the availability cross-field
// invariants that validator tags cannot express.
func (e *CatalogEntry) Validate() error {
	if err := movieValidate.Struct(e); err != nil {
		return err
	}

	hasPrice := e.RentalPrice != nil
	if hasPrice != (e.Availability == AvailabilityRental) {
		return fmt.Errorf("catalog entry %q: rental_price set=%v but availability_type=%q",
			e.Title, hasPrice, e.Availability)
	}

	hasURL := e.NetflixURL != ""
	wantURL := e.Availability == AvailabilityIncluded || e.Availability == AvailabilityRental
	if hasURL != wantURL {
		return fmt.Errorf("catalog entry %q: netflix_url set=%v but availability_type=%q",
			e.Title, hasURL, e.Availability)
	}

	return nil
}

// CatalogEntryFromDocument converts a retrieved document into a CatalogEntry.
// List-valued metadata is stored comma-joined in the vector store, mirroring
// how the ingestion side flattens it.
func CatalogEntryFromDocument(doc schema.Document) CatalogEntry {
	meta := doc.Metadata

	entry := CatalogEntry{
		Id:              metaInt(meta, "film_id"),
		Title:           metaString(meta, "title"),
		ReleaseYear:     metaInt(meta, "release_year"),
		Director:        metaString(meta, "director"),
		Genres:          splitList(metaString(meta, "genres")),
		ImdbRating:      metaFloat(meta, "imdb_rating"),
		Cast:            splitList(metaString(meta, "cast")),
		DurationMinutes: metaInt(meta, "duration_minutes"),
		Availability:    metaString(meta, "availability_type"),
		MinimumPlan:     metaString(meta, "minimum_plan"),
		NetflixURL:      metaString(meta, "netflix_url"),
		Content:         doc.PageContent,
	}

	if price, ok := meta["rental_price"]; ok {
		if f, ok := toFloat(price); ok && f > 0 {
			entry.RentalPrice = &f
		}
	}

	return entry
}

// FormatExcerpt renders the entry as a context block for the synthesis
// prompt. Availability and the canonical URL are always spelled out so the
// model can disclose them.
func (e *CatalogEntry) FormatExcerpt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Titolo: %s (%d)\n", e.Title, e.ReleaseYear)
	if e.Director != "" {
		fmt.Fprintf(&b, "Regia: %s\n", e.Director)
	}
	if len(e.Genres) > 0 {
		fmt.Fprintf(&b, "Generi: %s\n", strings.Join(e.Genres, ", "))
	}
	if e.ImdbRating > 0 {
		fmt.Fprintf(&b, "Rating IMDb: %.1f\n", e.ImdbRating)
	}
	if len(e.Cast) > 0 {
		fmt.Fprintf(&b, "Cast: %s\n", strings.Join(e.Cast, ", "))
	}

	switch e.Availability {
	case AvailabilityIncluded:
		fmt.Fprintf(&b, "Disponibilità: incluso nell'abbonamento (URL: %s)\n", e.NetflixURL)
	case AvailabilityRental:
		if e.RentalPrice != nil {
			fmt.Fprintf(&b, "Disponibilità: a noleggio a %.2f EUR (URL: %s)\n", *e.RentalPrice, e.NetflixURL)
		} else {
			fmt.Fprintf(&b, "Disponibilità: a noleggio (URL: %s)\n", e.NetflixURL)
		}
	default:
		b.WriteString("Disponibilità: non disponibile\n")
	}

	if e.Content != "" {
		fmt.Fprintf(&b, "Descrizione: %s\n", strings.TrimSpace(e.Content))
	}

	return b.String()
}

// --- metadata helpers ---

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	if v, ok := meta[key]; ok {
		if f, ok := toFloat(v); ok {
			return int(f)
		}
	}
	return 0
}

func metaFloat(meta map[string]any, key string) float64 {
	if v, ok := meta[key]; ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func splitList(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
