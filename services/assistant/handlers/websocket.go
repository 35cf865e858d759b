package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

// WSRequest is one inbound websocket frame.
type WSRequest struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"` // e.g. "reset"
}

// WSResponse is a standard chat reply frame.
type WSResponse struct {
	Answer string `json:"answer"`
	UserId string `json:"user_id"`
	Error  string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleChatWebSocket runs the per-connection chat loop. One connection
// serves one user; the read loop serializes that user's turns, which is
// what keeps session memory free of overlapping writes.
func HandleChatWebSocket(agent TurnHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Param("userId"))
		if userID == "" {
			userID = "guest_" + uuid.New().String()[:8]
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()
		slog.Info("Websocket client connected", "userID", userID)

		if err := sendJSON(ws, map[string]interface{}{
			"action": "session_created",
			"userId": userID,
		}); err != nil {
			return
		}

		for {
			var req WSRequest
			if err := ws.ReadJSON(&req); err != nil {
				slog.Info("Websocket client disconnected", "userID", userID, "error", err.Error())
				break
			}

			if req.Action == "reset" {
				agent.Reset(userID)
				if err := sendJSON(ws, map[string]interface{}{"action": "session_reset", "userId": userID}); err != nil {
					return
				}
				continue
			}

			message := strings.TrimSpace(req.Message)
			if message == "" {
				if err := sendJSON(ws, WSResponse{UserId: userID, Error: "empty message"}); err != nil {
					return
				}
				continue
			}
			if err := datatypes.ValidateMessage(datatypes.Message{Role: datatypes.RoleUser, Content: message}); err != nil {
				if err := sendJSON(ws, WSResponse{UserId: userID, Error: err.Error()}); err != nil {
					return
				}
				continue
			}

			// A dropped connection cancels the request context and aborts
			// the in-flight turn.
			answer := agent.HandleTurn(c.Request.Context(), userID, message)
			if err := sendJSON(ws, WSResponse{Answer: answer, UserId: userID}); err != nil {
				return
			}
		}
	}
}
