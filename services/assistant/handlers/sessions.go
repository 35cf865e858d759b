// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moviechat/moviechat/services/assistant/session"
)

// ListSessions reports the user identifiers that currently hold history.
func ListSessions(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users := store.ActiveUsers()
		c.JSON(http.StatusOK, gin.H{
			"users": users,
			"count": len(users),
		})
	}
}

// GetSessionHistory returns the stored turn sequence for one user, in
// arrival order.
func GetSessionHistory(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		history := store.History(userID)
		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"history": history,
			"turns":   len(history) / 2,
		})
	}
}

// DeleteSession resets one user's session. Deleting an absent session is
// still a 200; reset is idempotent.
func DeleteSession(agent TurnHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		slog.Info("Received a request to reset a session", "userID", userID)
		agent.Reset(userID)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "status": "reset"})
	}
}
