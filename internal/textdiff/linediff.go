// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package textdiff

import "strings"

// Kind tags a single line change.
type Kind string

const (
	Added     Kind = "added"
	Removed   Kind = "removed"
	Unchanged Kind = "unchanged"
)

// LineChange is one emitted line of a diff.
type LineChange struct {
	Kind Kind
	Text string
}

// SplitLines splits text on newlines. An empty string is one empty line,
// never zero lines, so line counts stay consistent across the package.
func SplitLines(s string) []string {
	return strings.Split(s, "\n")
}

// LineDiff walks two texts line by line with one cursor per side and emits
// added, removed and unchanged changes. Lines that differ but score above
// 0.5 similarity are treated as an in-place edit (removed then added, both
// cursors advance). Below that, a look-ahead for each cursor line on the
// opposite side decides whether the current position is an insertion, a
// deletion, or a flat replacement. Ties between the two look-aheads go to
// the insertion.
func LineDiff(oldText, newText string) []LineChange {
	oldLines := SplitLines(oldText)
	newLines := SplitLines(newText)

	var changes []LineChange

	i, j := 0, 0
	for {
		switch {
		case i >= len(oldLines) && j >= len(newLines):
			return changes

		case i >= len(oldLines):
			changes = append(changes, LineChange{Kind: Added, Text: newLines[j]})
			j++

		case j >= len(newLines):
			changes = append(changes, LineChange{Kind: Removed, Text: oldLines[i]})
			i++

		case oldLines[i] == newLines[j]:
			changes = append(changes, LineChange{Kind: Unchanged, Text: oldLines[i]})
			i++
			j++

		case Similarity(oldLines[i], newLines[j]) > 0.5:
			// Similar enough to call it an edit of the same line.
			changes = append(changes,
				LineChange{Kind: Removed, Text: oldLines[i]},
				LineChange{Kind: Added, Text: newLines[j]})
			i++
			j++

		default:
			oldInNew := indexOf(newLines[j:], oldLines[i])
			newInOld := indexOf(oldLines[i:], newLines[j])

			switch {
			case oldInNew < 0 && newInOld < 0:
				// Neither line reappears ahead. Flat replacement.
				changes = append(changes,
					LineChange{Kind: Removed, Text: oldLines[i]},
					LineChange{Kind: Added, Text: newLines[j]})
				i++
				j++

			case oldInNew >= 0 && (newInOld < 0 || oldInNew <= newInOld):
				// The old line shows up again soon, so the new line was
				// inserted before it.
				changes = append(changes, LineChange{Kind: Added, Text: newLines[j]})
				j++

			default:
				changes = append(changes, LineChange{Kind: Removed, Text: oldLines[i]})
				i++
			}
		}
	}
}

// indexOf returns the offset of the first exact match of want in lines, or
// -1 when absent.
func indexOf(lines []string, want string) int {
	for n, l := range lines {
		if l == want {
			return n
		}
	}

	return -1
}
