// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability holds the Prometheus metrics for the assistant.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnTotal counts completed turns by outcome
	TurnTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviechat_turn_total",
		Help: "Total completed turns by outcome",
	}, []string{"outcome"})

	// TurnDuration tracks end-to-end turn latency
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviechat_turn_duration_seconds",
		Help:    "Turn duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~400s
	})

	// ToolInvocationTotal counts tool runs by tool and result
	ToolInvocationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviechat_tool_invocation_total",
		Help: "Total tool invocations by tool name and result",
	}, []string{"tool", "result"})

	// ReasoningIterations tracks reasoning cycles consumed per turn
	ReasoningIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviechat_reasoning_iterations",
		Help:    "Reasoning cycles consumed per turn",
		Buckets: []float64{1, 2, 3, 4, 5},
	})

	// MalformedStepTotal counts malformed reasoning steps by recovery path
	MalformedStepTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviechat_malformed_step_total",
		Help: "Malformed reasoning steps by recovery path",
	}, []string{"recovery"})

	// WebBackendErrors counts web research backend failures by source
	WebBackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviechat_web_backend_errors_total",
		Help: "Web research backend failures by source",
	}, []string{"source"})

	// ActiveSessions tracks sessions with at least one stored turn
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviechat_active_sessions",
		Help: "Sessions with at least one stored turn",
	})
)

// Turn outcome label values. Malformed-step recovery is tracked separately
// by MalformedStepTotal; a recovered turn still counts as answered.
const (
	OutcomeAnswered = "answered"
	OutcomeFallback = "fallback"
)
