// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pexctl/pexctl/internal/textdiff"
)

func TestStats(t *testing.T) {
	tests := []struct {
		name string
		diff *RecordDiff
		want DiffStats
	}{
		{
			name: "added counts new content lines",
			diff: &RecordDiff{Status: StatusAdded, NewContent: "a\nb\nc"},
			want: DiffStats{LinesAdded: 3},
		},
		{
			name: "added empty content is one line",
			diff: &RecordDiff{Status: StatusAdded, NewContent: ""},
			want: DiffStats{LinesAdded: 1},
		},
		{
			name: "removed counts old content lines",
			diff: &RecordDiff{Status: StatusRemoved, OldContent: "x\ny"},
			want: DiffStats{LinesRemoved: 2},
		},
		{
			name: "unchanged is all zeros",
			diff: &RecordDiff{Status: StatusUnchanged, OldContent: "a", NewContent: "a"},
			want: DiffStats{},
		},
		{
			name: "nil diff is all zeros",
			diff: nil,
			want: DiffStats{},
		},
		{
			name: "modified counts the line diff and changed fields",
			diff: &RecordDiff{
				Status:     StatusModified,
				OldContent: "a\nb\nc",
				NewContent: "a\nx\nb\nc",
				Changes: []FieldChange{
					{Field: "content"},
					{Field: "model"},
				},
			},
			want: DiffStats{LinesAdded: 1, LinesUnchanged: 3, FieldsChanged: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stats(tt.diff))
		})
	}
}

// Modified stats always agree with a direct line diff of the contents.
func TestStatsMatchesLineDiff(t *testing.T) {
	diff := &RecordDiff{
		Status:     StatusModified,
		OldContent: "one\ntwo\nthree",
		NewContent: "one\n2\nthree\nfour",
		Changes:    []FieldChange{{Field: "content"}},
	}

	var added, removed, unchanged int
	for _, c := range textdiff.LineDiff(diff.OldContent, diff.NewContent) {
		switch c.Kind {
		case textdiff.Added:
			added++
		case textdiff.Removed:
			removed++
		case textdiff.Unchanged:
			unchanged++
		}
	}

	stats := Stats(diff)
	assert.Equal(t, added, stats.LinesAdded)
	assert.Equal(t, removed, stats.LinesRemoved)
	assert.Equal(t, unchanged, stats.LinesUnchanged)
	assert.Equal(t, 1, stats.FieldsChanged)
}
