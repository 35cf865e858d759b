// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the assistant's runtime configuration from the
// environment, with defaults logged on every fallback.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration of the assistant service.
type Config struct {
	Port           string
	GinMode        string
	LLMBackendType string
	WeaviateURL    string
	OTelEndpoint   string

	CatalogK       int
	CatalogFilter  string // optional "key=value" narrowing every catalog search
	TurnTimeout    time.Duration
	BackendTimeout time.Duration
}

// Load reads the configuration. A .env file in the working directory is
// merged first when present; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded configuration overrides from .env file")
	}

	return Config{
		Port:           getEnv("ASSISTANT_PORT", "8000"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LLMBackendType: getEnv("LLM_BACKEND_TYPE", "openai"),
		WeaviateURL:    os.Getenv("WEAVIATE_SERVICE_URL"),
		OTelEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "moviechat-otel-collector:4317"),
		CatalogK:       getEnvInt("FILMS_SEARCH_K", 5),
		CatalogFilter:  os.Getenv("CATALOG_METADATA_FILTER"),
		TurnTimeout:    getEnvDuration("TURN_TIMEOUT", 90*time.Second),
		BackendTimeout: getEnvDuration("WEB_BACKEND_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	slog.Warn("Environment variable not set, using default", "key", key, "default", fallback)
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		slog.Warn("Invalid integer environment variable, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		slog.Warn("Invalid duration environment variable, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}
