// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `{
  "version": 7,
  "exportedAt": "2026-03-14T09:30:00Z",
  "prompts": [
    {
      "id": "pr-onboarding",
      "name": "Onboarding Greeter",
      "content": "Welcome {{user}}!",
      "description": "First-touch greeting",
      "systemPrompt": "You are friendly.",
      "model": "gpt-4o",
      "temperature": 0.3,
      "variables": {"user": "string"},
      "versionLabel": "v7"
    },
    {
      "id": "pr-summarizer",
      "name": "Summarizer",
      "content": "Summarize:\n{{text}}"
    }
  ],
  "unknownField": true
}`

func TestParse(t *testing.T) {
	snap, err := Parse([]byte(sampleExport))
	require.NoError(t, err)

	assert.Equal(t, 7, snap.Version)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), snap.ExportedAt)
	require.Len(t, snap.Prompts, 2)

	first := snap.Prompts[0]
	assert.Equal(t, "pr-onboarding", first.ID)
	assert.Equal(t, "Onboarding Greeter", first.Name)
	assert.Equal(t, "You are friendly.", first.System)
	require.NotNil(t, first.Temperature)
	assert.InDelta(t, 0.3, *first.Temperature, 1e-9)
	assert.Equal(t, map[string]interface{}{"user": "string"}, first.Variables)

	second := snap.Prompts[1]
	assert.Equal(t, "pr-summarizer", second.ID)
	assert.Nil(t, second.Temperature)
	assert.Nil(t, second.Variables)
	assert.Empty(t, second.Model)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("not json at all"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse export")
}

func TestVersionNumber(t *testing.T) {
	assert.Equal(t, 7, VersionNumber([]byte(sampleExport)))
	assert.Equal(t, -1, VersionNumber([]byte(`{"prompts":[]}`)))
}

func TestIsEncrypted(t *testing.T) {
	assert.False(t, IsEncrypted([]byte(sampleExport)))
	assert.True(t, IsEncrypted([]byte(`{"meta":{"key":"x"},"encrypted_data":"y"}`)))
}
