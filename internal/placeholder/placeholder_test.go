// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNames(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single placeholder",
			content: "Hello {{user}}!",
			want:    []string{"user"},
		},
		{
			name:    "padding inside braces",
			content: "Hello {{ user }} and {{  team  }}",
			want:    []string{"user", "team"},
		},
		{
			name:    "duplicates collapse in order",
			content: "{{a}} {{b}} {{a}} {{c}} {{b}}",
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "underscored and mixed case names",
			content: "{{user_name}} {{UserName}}",
			want:    []string{"user_name", "UserName"},
		},
		{
			name:    "single braces ignored",
			content: "JSON example: {\"key\": \"value\"}",
			want:    nil,
		},
		{
			name:    "name starting with digit ignored",
			content: "{{1bad}} {{good1}}",
			want:    []string{"good1"},
		},
		{
			name:    "empty content",
			content: "",
			want:    nil,
		},
		{
			name:    "multiline content",
			content: "Summarize:\n{{text}}\nfor {{audience}}",
			want:    []string{"text", "audience"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Names(tt.content))
		})
	}
}

func TestUnbound(t *testing.T) {
	vars := map[string]interface{}{
		"user": "string",
		"tone": "string",
	}

	tests := []struct {
		name    string
		content string
		vars    map[string]interface{}
		want    []string
	}{
		{
			name:    "all bound",
			content: "Hi {{user}}, be {{tone}}.",
			vars:    vars,
			want:    nil,
		},
		{
			name:    "one unbound",
			content: "Hi {{user}} from {{company}}.",
			vars:    vars,
			want:    []string{"company"},
		},
		{
			name:    "nil variables leaves everything unbound",
			content: "{{a}} {{b}}",
			vars:    nil,
			want:    []string{"a", "b"},
		},
		{
			name:    "case sensitive binding",
			content: "{{User}}",
			vars:    vars,
			want:    []string{"User"},
		},
		{
			name:    "no placeholders",
			content: "static prompt",
			vars:    nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unbound(tt.content, tt.vars))
		})
	}
}

func TestIsUnbound(t *testing.T) {
	assert.True(t, IsUnbound("{{missing}}", nil))
	assert.False(t, IsUnbound("{{user}}", map[string]interface{}{"user": 1}))
	assert.False(t, IsUnbound("no templates here", nil))
}
