// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSocketURL(t *testing.T) {
	cases := []struct {
		name string
		base string
		user string
		want string
	}{
		{"http to ws", "http://localhost:8000", "alice", "ws://localhost:8000/v1/chat/ws/alice"},
		{"https to wss", "https://chat.example.com", "alice", "wss://chat.example.com/v1/chat/ws/alice"},
		{"no user", "http://localhost:8000", "", "ws://localhost:8000/v1/chat/ws"},
		{"trailing slash", "http://localhost:8000/", "bob", "ws://localhost:8000/v1/chat/ws/bob"},
		{"user needs escaping", "http://localhost:8000", "a b", "ws://localhost:8000/v1/chat/ws/a%20b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := chatSocketURL(tc.base, tc.user)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestChatSocketURL_RejectsBadScheme(t *testing.T) {
	_, err := chatSocketURL("ftp://localhost", "alice")
	assert.Error(t, err)
}
