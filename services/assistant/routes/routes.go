// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moviechat/moviechat/services/assistant/handlers"
	"github.com/moviechat/moviechat/services/assistant/session"
)

// SetupRoutes wires the transport surface: health, metrics, the chat
// endpoints, and session administration.
func SetupRoutes(router *gin.Engine, agent handlers.TurnHandler, store *session.Store) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/chat", handlers.HandleChat(agent))
		v1.GET("/chat/ws", handlers.HandleChatWebSocket(agent))
		v1.GET("/chat/ws/:userId", handlers.HandleChatWebSocket(agent))

		sessions := v1.Group("/sessions")
		{
			sessions.GET("", handlers.ListSessions(store))
			sessions.GET("/:userId/history", handlers.GetSessionHistory(store))
			sessions.DELETE("/:userId", handlers.DeleteSession(agent))
		}
	}
}
