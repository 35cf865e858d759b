// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyFromEnv(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "openai_api_key")
	require.NoError(t, os.WriteFile(secretFile, []byte("sk-embed-key\n"), 0o600))

	t.Run("secret file trailing newline trimmed", func(t *testing.T) {
		t.Setenv("RETRIEVAL_TEST_KEY", "")
		assert.Equal(t, "sk-embed-key", apiKeyFromEnv("RETRIEVAL_TEST_KEY", secretFile))
	})

	t.Run("env var wins over secret file", func(t *testing.T) {
		t.Setenv("RETRIEVAL_TEST_KEY", "sk-env-key")
		assert.Equal(t, "sk-env-key", apiKeyFromEnv("RETRIEVAL_TEST_KEY", secretFile))
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv("RETRIEVAL_TEST_KEY", "")
		assert.Empty(t, apiKeyFromEnv("RETRIEVAL_TEST_KEY", filepath.Join(t.TempDir(), "missing")))
	})
}
