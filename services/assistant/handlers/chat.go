// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

var handlerTracer = otel.Tracer("moviechat.handlers")

// TurnHandler is what the transport needs from the agent. Narrow on purpose
// so handler tests can use a fake.
type TurnHandler interface {
	// HandleTurn always returns one answer, never an error.
	HandleTurn(ctx context.Context, userID, message string) string

	// Reset discards the session for the user. Idempotent.
	Reset(userID string)
}

// HandleChat serves one synchronous turn over plain HTTP.
func HandleChat(agent TurnHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		var req datatypes.ChatTurnRequest
		if err := c.BindJSON(&req); err != nil {
			slog.Error("Failed to parse chat turn request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.EnsureDefaults()

		if err := req.Validate(); err != nil {
			slog.Warn("Rejected invalid chat turn request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		answer := agent.HandleTurn(ctx, req.UserId, req.Message)
		c.JSON(http.StatusOK, datatypes.NewChatTurnResponse(req.UserId, answer))
	}
}
