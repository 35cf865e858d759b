// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moviechat/moviechat/services/assistant/observability"
	"github.com/moviechat/moviechat/services/assistant/session"
	"github.com/moviechat/moviechat/services/assistant/tools"
)

// DefaultTurnTimeout bounds one turn end to end, on top of the iteration
// budget, so a hanging backend cannot hold a connection forever.
const DefaultTurnTimeout = 90 * time.Second

// Agent is the turn-level orchestrator: reasoning loop plus session memory
// plus the deterministic fallback.
//
// # Description
//
// HandleTurn always produces exactly one textual answer. Loop failures of
// any kind (iteration budget, model errors, timeouts) degrade to the
// fallback path; the degraded turn is still appended to session memory as
// a completed turn.
//
// # Thread Safety
//
// Agent is safe for concurrent use across users. The transport must not
// deliver two overlapping turns for the same user identifier.
type Agent struct {
	loop        *Loop
	fallback    *Fallback
	memory      *session.Store
	turnTimeout time.Duration
}

// NewAgent creates the orchestrator. turnTimeout values <= 0 fall back to
// DefaultTurnTimeout.
func NewAgent(loop *Loop, fallback *Fallback, memory *session.Store, turnTimeout time.Duration) *Agent {
	if turnTimeout <= 0 {
		turnTimeout = DefaultTurnTimeout
	}
	return &Agent{
		loop:        loop,
		fallback:    fallback,
		memory:      memory,
		turnTimeout: turnTimeout,
	}
}

// HandleTurn processes one inbound user message and returns the answer.
//
// # Inputs
//
//   - ctx: Canceled when the transport connection drops; aborts the turn.
//   - userID: The session key. The raw message is tagged with it so the
//     reasoning step can route user-history lookups.
//   - message: The raw user message.
//
// # Outputs
//
//   - string: Always a non-empty answer, possibly a degraded fallback.
func (a *Agent) HandleTurn(ctx context.Context, userID, message string) string {
	ctx, cancel := context.WithTimeout(ctx, a.turnTimeout)
	defer cancel()

	start := time.Now()
	turn := tools.TurnContext{
		UserID:  userID,
		History: a.memory.History(userID),
	}

	tagged := fmt.Sprintf("[USER_ID: %s] %s", userID, message)
	outcome := observability.OutcomeAnswered

	answer, err := a.loop.Run(ctx, turn, tagged)
	if err != nil {
		slog.Warn("Reasoning loop failed, using fallback", "userID", userID, "error", err)
		answer = a.fallback.Answer(ctx, turn, message)
		outcome = observability.OutcomeFallback
	}

	a.memory.AppendTurn(userID, message, answer)
	observability.ActiveSessions.Set(float64(len(a.memory.ActiveUsers())))
	observability.TurnTotal.WithLabelValues(outcome).Inc()
	observability.TurnDuration.Observe(time.Since(start).Seconds())

	slog.Info("Turn complete", "userID", userID, "outcome", outcome, "durationMs", time.Since(start).Milliseconds())
	return answer
}

// stripUserTag removes the routing prefix HandleTurn prepends to the raw
// message, so the remainder can serve as a semantic search query.
func stripUserTag(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "[USER_ID:") {
		if end := strings.Index(trimmed, "]"); end >= 0 {
			return strings.TrimSpace(trimmed[end+1:])
		}
	}
	return trimmed
}

// Reset discards the session memory for the given user. Idempotent.
func (a *Agent) Reset(userID string) {
	a.memory.Reset(userID)
	observability.ActiveSessions.Set(float64(len(a.memory.ActiveUsers())))
}
