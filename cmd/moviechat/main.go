// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command moviechat is a terminal client for the assistant service.
//
// Usage:
//
//	moviechat chat --user alice
//	moviechat sessions list
//	moviechat sessions history alice
//	moviechat sessions reset alice
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "moviechat",
	Short: "A CLI client for the MovieChat assistant service",
	Long: `moviechat talks to a running assistant service: interactive movie
conversations over the websocket endpoint and session management over the
REST API.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000",
		"Base URL of the assistant service")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
