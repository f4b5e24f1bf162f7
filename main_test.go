// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicateFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "nothing to scan",
			args: []string{},
			want: []string{},
		},
		{
			name: "bare subcommand",
			args: []string{"pexctl", "pq"},
			want: []string{"pexctl", "pq"},
		},
		{
			name: "no repeats pass through",
			args: []string{"pexctl", "pq", "--filter", "unbound", "--titles"},
			want: []string{"pexctl", "pq", "--filter", "unbound", "--titles"},
		},
		{
			name: "last value flag wins",
			args: []string{"pexctl", "pq", "--output", "json", "--titles", "--output", "text"},
			want: []string{"pexctl", "pq", "--titles", "--output", "text"},
		},
		{
			name: "repeated bool collapses to last",
			args: []string{"pexctl", "vq", "--titles", "--color", "--titles"},
			want: []string{"pexctl", "vq", "--color", "--titles"},
		},
		{
			name: "equals form",
			args: []string{"pexctl", "pq", "--sort=name", "--titles", "--sort=-ev"},
			want: []string{"pexctl", "pq", "--titles", "--sort=-ev"},
		},
		{
			name: "equals then space form of the same flag",
			args: []string{"pexctl", "pq", "--output=json", "--output", "text"},
			want: []string{"pexctl", "pq", "--output", "text"},
		},
		{
			name: "several flags repeated",
			args: []string{"pexctl", "vq", "--host", "a.b.c", "--org", "acme", "--host", "x.y.z", "--org", "beta"},
			want: []string{"pexctl", "vq", "--host", "x.y.z", "--org", "beta"},
		},
		{
			name: "leading positional sticks",
			args: []string{"pexctl", "pq", "/work/prompts", "--output", "json", "--output", "text"},
			want: []string{"pexctl", "pq", "/work/prompts", "--output", "text"},
		},
		{
			name: "positional between repeats sticks too",
			args: []string{"pexctl", "pq", "--output", "json", "/work/prompts", "--output", "text"},
			want: []string{"pexctl", "pq", "/work/prompts", "--output", "text"},
		},
		{
			name: "short form",
			args: []string{"pexctl", "pq", "-o", "json", "-o", "yaml"},
			want: []string{"pexctl", "pq", "-o", "yaml"},
		},
		{
			name: "negated variant is a distinct flag",
			args: []string{"pexctl", "pq", "--color", "--no-color"},
			want: []string{"pexctl", "pq", "--color", "--no-color"},
		},
		{
			name: "three repeats keep only the last",
			args: []string{"pexctl", "pq", "--ev", "1", "--ev", "2", "--ev", "3"},
			want: []string{"pexctl", "pq", "--ev", "3"},
		},
		{
			name: "unique flags keep their order",
			args: []string{"pexctl", "pq", "--attrs", "name", "--filter", "unbound", "--sort", "ev"},
			want: []string{"pexctl", "pq", "--attrs", "name", "--filter", "unbound", "--sort", "ev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deduplicateFlags(tt.args))
		})
	}
}

func TestSpliceFields(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		entries []string
		at      int
		want    []string
	}{
		{
			name:    "no entries leaves args alone",
			args:    []string{"pexctl", "pq", "--titles"},
			entries: nil,
			at:      2,
			want:    []string{"pexctl", "pq", "--titles"},
		},
		{
			name:    "single flag lands before the tail",
			args:    []string{"pexctl", "pq", "--titles"},
			entries: []string{"--color"},
			at:      2,
			want:    []string{"pexctl", "pq", "--color", "--titles"},
		},
		{
			name:    "entry with a value splits into fields",
			args:    []string{"pexctl", "pq", "--titles"},
			entries: []string{"--output text"},
			at:      2,
			want:    []string{"pexctl", "pq", "--output", "text", "--titles"},
		},
		{
			name:    "entries expand in order",
			args:    []string{"pexctl", "pq"},
			entries: []string{"--color", "--output json"},
			at:      2,
			want:    []string{"pexctl", "pq", "--color", "--output", "json"},
		},
		{
			name:    "insertion after a positional",
			args:    []string{"pexctl", "pq", "/work/prompts", "--titles"},
			entries: []string{"--color"},
			at:      3,
			want:    []string{"pexctl", "pq", "/work/prompts", "--color", "--titles"},
		},
		{
			name:    "host and org pair",
			args:    []string{"pexctl", "vq"},
			entries: []string{"--host app.promptex.io", "--org acme"},
			at:      2,
			want:    []string{"pexctl", "vq", "--host", "app.promptex.io", "--org", "acme"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spliceFields(tt.args, tt.entries, tt.at))
		})
	}
}

func TestDefaultToStdin(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "bare xs reads stdin",
			args: []string{"pexctl", "xs"},
			want: []string{"pexctl", "xs", "-"},
		},
		{
			name: "explicit dash passes through",
			args: []string{"pexctl", "xs", "-", "--titles"},
			want: []string{"pexctl", "xs", "-", "--titles"},
		},
		{
			name: "missing file means stdin",
			args: []string{"pexctl", "xs", "--titles"},
			want: []string{"pexctl", "xs", "-", "--titles"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultToStdin(tt.args))
		})
	}
}

func TestDefaultToStdinKeepsNamedFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(f, []byte("{}"), 0o600))

	args := []string{"pexctl", "xs", f, "--titles"}
	assert.Equal(t, args, defaultToStdin(args))
}

func TestHasFlag(t *testing.T) {
	args := []string{"pexctl", "pq", "--titles", "-v"}

	assert.True(t, hasFlag(args, "--version", "-v"))
	assert.True(t, hasFlag(args, "--titles"))
	assert.False(t, hasFlag(args, "--help", "-h"))
}
