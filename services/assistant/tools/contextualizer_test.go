// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

func someHistory() []datatypes.Message {
	return []datatypes.Message{
		{Role: datatypes.RoleUser, Content: "Parlami di Inception"},
		{Role: datatypes.RoleAssistant, Content: "Inception è un thriller di Christopher Nolan."},
	}
}

func TestRewrite_EmptyHistorySkipsModel(t *testing.T) {
	client := &cannedLLM{answer: "should not be used"}
	c := NewContextualizer(client)

	out, err := c.Rewrite(context.Background(), nil, "  film di fantascienza  ")
	require.NoError(t, err)
	assert.Equal(t, "film di fantascienza", out)
	assert.Equal(t, 0, client.calls)
}

func TestRewrite_ResolvesAgainstHistory(t *testing.T) {
	client := &cannedLLM{answer: "altri film di Christopher Nolan"}
	c := NewContextualizer(client)

	out, err := c.Rewrite(context.Background(), someHistory(), "altri dello stesso regista")
	require.NoError(t, err)
	assert.Equal(t, "altri film di Christopher Nolan", out)
	assert.Equal(t, 1, client.calls)
}

func TestRewrite_EmptyRewriteKeepsRawInput(t *testing.T) {
	client := &cannedLLM{answer: "   "}
	c := NewContextualizer(client)

	out, err := c.Rewrite(context.Background(), someHistory(), "altri dello stesso regista")
	require.NoError(t, err)
	assert.Equal(t, "altri dello stesso regista", out)
}

func TestRewrite_ModelError(t *testing.T) {
	client := &cannedLLM{err: errors.New("backend down")}
	c := NewContextualizer(client)

	out, err := c.Rewrite(context.Background(), someHistory(), "altri dello stesso regista")
	require.Error(t, err)
	assert.Empty(t, out)
}
