// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package reconcile

import "github.com/pexctl/pexctl/internal/textdiff"

// DiffStats quantifies one RecordDiff.
type DiffStats struct {
	LinesAdded     int
	LinesRemoved   int
	LinesUnchanged int
	FieldsChanged  int
}

// Stats derives line and field counts from a RecordDiff. An added record
// counts every line of its new content as added, a removed record every
// line of its old content as removed, a modified record counts the line
// diff of old versus new content plus the number of changed fields, and an
// unchanged record is all zeros. An empty content string counts as one
// empty line.
func Stats(d *RecordDiff) DiffStats {
	if d == nil {
		return DiffStats{}
	}

	switch d.Status {
	case StatusAdded:
		return DiffStats{LinesAdded: len(textdiff.SplitLines(d.NewContent))}

	case StatusRemoved:
		return DiffStats{LinesRemoved: len(textdiff.SplitLines(d.OldContent))}

	case StatusModified:
		var stats DiffStats
		for _, c := range textdiff.LineDiff(d.OldContent, d.NewContent) {
			switch c.Kind {
			case textdiff.Added:
				stats.LinesAdded++
			case textdiff.Removed:
				stats.LinesRemoved++
			case textdiff.Unchanged:
				stats.LinesUnchanged++
			}
		}
		stats.FieldsChanged = len(d.Changes)

		return stats

	default:
		return DiffStats{}
	}
}
