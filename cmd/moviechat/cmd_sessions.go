// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type sessionListResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

type sessionHistoryResponse struct {
	UserId  string `json:"user_id"`
	Turns   int    `json:"turns"`
	History []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"history"`
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with an active session",
	RunE:  runSessionsList,
}

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history [user]",
	Short: "Print the stored conversation for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsHistory,
}

var sessionsResetCmd = &cobra.Command{
	Use:   "reset [user]",
	Short: "Discard the stored conversation for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsReset,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsHistoryCmd)
	sessionsCmd.AddCommand(sessionsResetCmd)
}

var apiClient = &http.Client{Timeout: 15 * time.Second}

func apiRequest(method, path string, out interface{}) error {
	endpoint := strings.TrimSuffix(serverURL, "/") + path
	req, err := http.NewRequest(method, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := apiClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	var resp sessionListResponse
	if err := apiRequest(http.MethodGet, "/v1/sessions", &resp); err != nil {
		return err
	}
	if resp.Count == 0 {
		fmt.Println("No active sessions.")
		return nil
	}
	for _, user := range resp.Users {
		fmt.Println(user)
	}
	return nil
}

func runSessionsHistory(cmd *cobra.Command, args []string) error {
	user := args[0]
	var resp sessionHistoryResponse
	if err := apiRequest(http.MethodGet, "/v1/sessions/"+url.PathEscape(user)+"/history", &resp); err != nil {
		return err
	}
	if len(resp.History) == 0 {
		fmt.Printf("No stored conversation for %s.\n", user)
		return nil
	}
	fmt.Printf("%s (%d turns)\n", resp.UserId, resp.Turns)
	for _, msg := range resp.History {
		fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
	}
	return nil
}

func runSessionsReset(cmd *cobra.Command, args []string) error {
	user := args[0]
	if err := apiRequest(http.MethodDelete, "/v1/sessions/"+url.PathEscape(user), nil); err != nil {
		return err
	}
	fmt.Printf("Session for %s reset.\n", user)
	return nil
}
