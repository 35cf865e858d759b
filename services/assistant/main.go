// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"

	"github.com/moviechat/moviechat/services/assistant/agent"
	"github.com/moviechat/moviechat/services/assistant/config"
	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/assistant/retrieval"
	"github.com/moviechat/moviechat/services/assistant/routes"
	"github.com/moviechat/moviechat/services/assistant/session"
	"github.com/moviechat/moviechat/services/assistant/tools"
	"github.com/moviechat/moviechat/services/assistant/websearch"
	"github.com/moviechat/moviechat/services/llm"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("assistant-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func newWeaviateClient(rawURL string) *weaviate.Client {
	// Trim quotes and whitespace in case the container runtime passes them literally.
	rawURL = strings.Trim(rawURL, "\"' ")
	if rawURL == "" || !strings.Contains(rawURL, "http") {
		log.Fatalf("WEAVIATE_SERVICE_URL is not set; the assistant cannot run without the catalog store")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		log.Fatalf("WEAVIATE_SERVICE_URL is invalid: %q (%v)", rawURL, err)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		log.Fatalf("Failed to create Weaviate client: %v", err)
	}

	datatypes.EnsureWeaviateSchema(client)
	return client
}

func newLLMClient(backendType string) llm.LLMClient {
	var client llm.LLMClient
	var err error

	switch backendType {
	case "openai":
		client, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		client, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	case "claude", "anthropic":
		client, err = llm.NewAnthropicClient()
		slog.Info("Using Anthropic (Claude) LLM backend")
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to openai", "value", backendType)
		client, err = llm.NewOpenAIClient()
	}
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	return client
}

func newWebBackends() (general, community websearch.SearchBackend) {
	general, err := websearch.NewTavilyBackend()
	if err != nil {
		slog.Warn("Tavily backend unavailable, web research will degrade", "error", err)
		general = websearch.NewUnavailableBackend("tavily", err)
	}

	community, err = websearch.NewRedditBackend()
	if err != nil {
		slog.Warn("Reddit backend unavailable, web research will degrade", "error", err)
		community = websearch.NewUnavailableBackend("reddit", err)
	}
	return general, community
}

func parseCatalogFilter(raw string) []retrieval.Filter {
	if raw == "" {
		return nil
	}
	key, value, found := strings.Cut(raw, "=")
	if !found || key == "" || value == "" {
		slog.Warn("Ignoring malformed CATALOG_METADATA_FILTER, expected key=value", "value", raw)
		return nil
	}
	return []retrieval.Filter{{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	cleanup, err := initTracer(cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	weaviateClient := newWeaviateClient(cfg.WeaviateURL)
	llmClient := newLLMClient(cfg.LLMBackendType)

	embedder, err := retrieval.NewOpenAIEmbedder()
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}
	store := retrieval.NewWeaviateStore(weaviateClient, embedder)

	contextualizer := tools.NewContextualizer(llmClient)
	synthesizer := tools.NewSynthesizer(llmClient)

	catalogTool := tools.NewCatalogSearchTool(store, contextualizer, synthesizer,
		cfg.CatalogK, parseCatalogFilter(cfg.CatalogFilter))
	generalBackend, communityBackend := newWebBackends()
	webTool := tools.NewWebResearchTool(contextualizer, synthesizer,
		generalBackend, communityBackend, cfg.BackendTimeout)
	historyTool := tools.NewUserHistoryTool(store)

	registry := agent.NewRegistry(catalogTool, webTool, historyTool)
	loop := agent.NewLoop(llmClient, registry)
	fallback := agent.NewFallback(catalogTool)
	memory := session.NewStore()
	chatAgent := agent.NewAgent(loop, fallback, memory, cfg.TurnTimeout)

	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	router.Use(otelgin.Middleware("assistant-service"))

	routes.SetupRoutes(router, chatAgent, memory)

	slog.Info("Starting the assistant server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
