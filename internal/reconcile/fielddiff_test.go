// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pexctl/pexctl/internal/export"
)

func f64(v float64) *float64 {
	return &v
}

func TestFieldDiff(t *testing.T) {
	tests := []struct {
		name string
		a    *export.Record
		b    *export.Record
		want []FieldChange
	}{
		{
			name: "equal records yield nothing",
			a:    &export.Record{ID: "p1", Content: "hi", Model: "gpt-4o"},
			b:    &export.Record{ID: "p1", Content: "hi", Model: "gpt-4o"},
			want: nil,
		},
		{
			name: "equal with nil pointers and empty maps",
			a:    &export.Record{ID: "p1", Variables: nil},
			b:    &export.Record{ID: "p1", Variables: map[string]interface{}{}},
			want: nil,
		},
		{
			name: "content change",
			a:    &export.Record{Content: "old text"},
			b:    &export.Record{Content: "new text"},
			want: []FieldChange{{Field: "content", Old: "old text", New: "new text"}},
		},
		{
			name: "system prompt appears",
			a:    &export.Record{},
			b:    &export.Record{System: "You are terse."},
			want: []FieldChange{{Field: "system", Old: "", New: "You are terse."}},
		},
		{
			name: "temperature set versus nil",
			a:    &export.Record{},
			b:    &export.Record{Temperature: f64(0.7)},
			want: []FieldChange{{Field: "temperature", Old: "", New: "0.7"}},
		},
		{
			name: "temperature value change",
			a:    &export.Record{Temperature: f64(0)},
			b:    &export.Record{Temperature: f64(1)},
			want: []FieldChange{{Field: "temperature", Old: "0", New: "1"}},
		},
		{
			name: "variables change is a single entry",
			a:    &export.Record{Variables: map[string]interface{}{"user": "string"}},
			b:    &export.Record{Variables: map[string]interface{}{"user": "string", "tone": "string"}},
			want: []FieldChange{{
				Field: "variables",
				Old:   `{"user":"string"}`,
				New:   `{"tone":"string","user":"string"}`,
			}},
		},
		{
			name: "nil records compare as empty",
			a:    nil,
			b:    nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldDiff(tt.a, tt.b))
		})
	}
}

// Multi-field diffs come out in a fixed order regardless of which fields
// changed: content, description, system, model, temperature, variables.
func TestFieldDiffOrder(t *testing.T) {
	a := &export.Record{
		Content:     "c1",
		Description: "d1",
		System:      "s1",
		Model:       "m1",
		Temperature: f64(0.2),
		Variables:   map[string]interface{}{"x": 1.0},
	}
	b := &export.Record{
		Content:     "c2",
		Description: "d2",
		System:      "s2",
		Model:       "m2",
		Temperature: f64(0.9),
		Variables:   map[string]interface{}{"x": 2.0},
	}

	changes := FieldDiff(a, b)
	require.Len(t, changes, 6)

	got := make([]string, 0, len(changes))
	for _, c := range changes {
		got = append(got, c.Field)
	}

	assert.Equal(t,
		[]string{"content", "description", "system", "model", "temperature", "variables"},
		got)
}

func TestFormatTemperature(t *testing.T) {
	assert.Equal(t, "", formatTemperature(nil))
	assert.Equal(t, "0.30000000000000004", formatTemperature(f64(0.1+0.2)))
	assert.Equal(t, "1", formatTemperature(f64(1.0)))
}

func TestCanonicalVariablesIsKeySorted(t *testing.T) {
	a := canonicalVariables(map[string]interface{}{"b": 1.0, "a": 2.0})
	assert.Equal(t, `{"a":2,"b":1}`, a)
	assert.Equal(t, "{}", canonicalVariables(nil))
}
