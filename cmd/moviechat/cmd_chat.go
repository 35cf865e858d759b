// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var chatUser string

// wsFrame covers every frame the server sends on the chat socket: action
// frames (session_created, session_reset) and answer frames.
type wsFrame struct {
	Action string `json:"action,omitempty"`
	Answer string `json:"answer,omitempty"`
	UserId string `json:"user_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

type wsMessage struct {
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive movie conversation",
	Long: `Opens a websocket to the assistant and runs a read-eval loop.

Type a message and press enter to send it. Special inputs:
  /reset   discard the session history and start fresh
  /quit    close the connection and exit`,
	RunE: runChatCommand,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "",
		"User identifier for the session (server assigns a guest id when empty)")
}

func runChatCommand(cmd *cobra.Command, args []string) error {
	wsURL, err := chatSocketURL(serverURL, chatUser)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	var created wsFrame
	if err := conn.ReadJSON(&created); err != nil {
		return fmt.Errorf("failed to read session frame: %w", err)
	}
	fmt.Printf("Connected as %s. Ask me about movies (/reset, /quit).\n", created.UserId)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch input {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := conn.WriteJSON(wsMessage{Action: "reset"}); err != nil {
				return err
			}
			var frame wsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return err
			}
			fmt.Println("Session reset.")
			continue
		}

		if err := conn.WriteJSON(wsMessage{Message: input}); err != nil {
			return err
		}
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}
		if frame.Error != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", frame.Error)
			continue
		}
		fmt.Printf("\n%s\n\n", frame.Answer)
	}
}

// chatSocketURL turns the base HTTP URL into the websocket endpoint,
// appending the user id path segment when one was given.
func chatSocketURL(base, user string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q in server URL", parsed.Scheme)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/v1/chat/ws"
	if user != "" {
		parsed = parsed.JoinPath(url.PathEscape(user))
	}
	return parsed.String(), nil
}
