// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package textdiff

import (
	"testing"

	agext "github.com/agext/levenshtein"
	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical strings",
			a:    "temperature guard",
			b:    "temperature guard",
			want: 1,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: 1,
		},
		{
			name: "left empty",
			a:    "",
			b:    "anything",
			want: 0,
		},
		{
			name: "right empty",
			a:    "anything",
			b:    "",
			want: 0,
		},
		{
			name: "length gap rejected without edit distance",
			a:    "ab",
			b:    "abcdefgh",
			want: 0,
		},
		{
			name: "gap exactly half is still scored",
			a:    "abcd",
			b:    "abcdabcd",
			want: 0.5,
		},
		{
			name: "single substitution",
			a:    "kitten",
			b:    "sitten",
			want: 1 - 1.0/6.0,
		},
		{
			name: "classic kitten sitting",
			a:    "kitten",
			b:    "sitting",
			want: 1 - 3.0/7.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)

			// Symmetric by construction.
			assert.InDelta(t, got, Similarity(tt.b, tt.a), 1e-9)
		})
	}
}

func TestSimilarityRange(t *testing.T) {
	pairs := [][2]string{
		{"You are a helpful assistant.", "You are a helpful assistant!"},
		{"summarize the text", "translate the text"},
		{"{{name}}", "{{user_name}}"},
		{"one", "совершенно другое"},
		{"multi\nline\nvalue", "multi\nline\nvalues"},
	}

	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0, "pair %q %q", p[0], p[1])
		assert.LessOrEqual(t, s, 1.0, "pair %q %q", p[0], p[1])
	}
}

// The two-row DP must agree with an independent levenshtein implementation
// whenever the length fast-path does not fire.
func TestSimilarityMatchesReference(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"saturday", "sunday"},
		{"prompt content v1", "prompt content v2"},
		{"Hello World", "Hello Universe"},
		{"abcd", "abcdabcd"},
		{"résumé", "resume"},
	}

	for _, p := range pairs {
		ra, rb := []rune(p[0]), []rune(p[1])

		maxLen := len(ra)
		if len(rb) > maxLen {
			maxLen = len(rb)
		}

		want := 1 - float64(agext.Distance(p[0], p[1], nil))/float64(maxLen)
		assert.InDelta(t, want, Similarity(p[0], p[1]), 1e-9, "pair %q %q", p[0], p[1])
	}
}
