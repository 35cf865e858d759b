// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func validEntry() CatalogEntry {
	return CatalogEntry{
		Id:           42,
		Title:        "Inception",
		ReleaseYear:  2010,
		Director:     "Christopher Nolan",
		Genres:       []string{"thriller", "sci-fi"},
		ImdbRating:   8.8,
		Availability: AvailabilityIncluded,
		NetflixURL:   "https://www.netflix.com/title/70131314",
	}
}

func TestCatalogEntryValidate_AvailabilityInvariants(t *testing.T) {
	price := 3.99

	cases := []struct {
		name   string
		mutate func(e *CatalogEntry)
		ok     bool
	}{
		{"included with url", func(e *CatalogEntry) {}, true},
		{"rental with price and url", func(e *CatalogEntry) {
			e.Availability = AvailabilityRental
			e.RentalPrice = &price
		}, true},
		{"unavailable bare", func(e *CatalogEntry) {
			e.Availability = AvailabilityUnavailable
			e.NetflixURL = ""
		}, true},
		{"included with price", func(e *CatalogEntry) {
			e.RentalPrice = &price
		}, false},
		{"rental without price", func(e *CatalogEntry) {
			e.Availability = AvailabilityRental
		}, false},
		{"included without url", func(e *CatalogEntry) {
			e.NetflixURL = ""
		}, false},
		{"unavailable with url", func(e *CatalogEntry) {
			e.Availability = AvailabilityUnavailable
		}, false},
		{"unknown availability", func(e *CatalogEntry) {
			e.Availability = "sometimes"
		}, false},
		{"missing title", func(e *CatalogEntry) {
			e.Title = ""
		}, false},
		{"rating out of range", func(e *CatalogEntry) {
			e.ImdbRating = 11
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := validEntry()
			tc.mutate(&entry)
			err := entry.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCatalogEntryFromDocument(t *testing.T) {
	doc := schema.Document{
		PageContent: "Un heist onirico dentro i sogni.",
		Metadata: map[string]any{
			"film_id":           float64(42),
			"title":             "Inception",
			"release_year":      float64(2010),
			"director":          "Christopher Nolan",
			"genres":            "thriller, sci-fi",
			"imdb_rating":       8.8,
			"cast":              "Leonardo DiCaprio, Joseph Gordon-Levitt",
			"duration_minutes":  float64(148),
			"availability_type": AvailabilityRental,
			"rental_price":      3.99,
			"minimum_plan":      "standard",
			"netflix_url":       "https://www.netflix.com/title/70131314",
		},
	}

	entry := CatalogEntryFromDocument(doc)
	assert.Equal(t, 42, entry.Id)
	assert.Equal(t, "Inception", entry.Title)
	assert.Equal(t, 2010, entry.ReleaseYear)
	assert.Equal(t, []string{"thriller", "sci-fi"}, entry.Genres)
	assert.Equal(t, []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt"}, entry.Cast)
	assert.Equal(t, 148, entry.DurationMinutes)
	require.NotNil(t, entry.RentalPrice)
	assert.Equal(t, 3.99, *entry.RentalPrice)
	assert.Equal(t, "Un heist onirico dentro i sogni.", entry.Content)
	assert.NoError(t, entry.Validate())
}

func TestCatalogEntryFromDocument_ZeroPriceIgnored(t *testing.T) {
	doc := schema.Document{
		Metadata: map[string]any{
			"title":             "Old Film",
			"release_year":      float64(1960),
			"availability_type": AvailabilityUnavailable,
			"rental_price":      float64(0),
		},
	}
	entry := CatalogEntryFromDocument(doc)
	assert.Nil(t, entry.RentalPrice)
	assert.NoError(t, entry.Validate())
}

func TestFormatExcerpt_DisclosesAvailability(t *testing.T) {
	entry := validEntry()
	out := entry.FormatExcerpt()
	assert.Contains(t, out, "Titolo: Inception (2010)")
	assert.Contains(t, out, "incluso nell'abbonamento")
	assert.Contains(t, out, entry.NetflixURL)

	price := 3.99
	entry.Availability = AvailabilityRental
	entry.RentalPrice = &price
	out = entry.FormatExcerpt()
	assert.Contains(t, out, "a noleggio a 3.99 EUR")

	entry = validEntry()
	entry.Availability = AvailabilityUnavailable
	entry.NetflixURL = ""
	entry.RentalPrice = nil
	out = entry.FormatExcerpt()
	assert.Contains(t, out, "non disponibile")
	assert.NotContains(t, out, "URL")
}
