// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package textdiff scores string similarity and computes line-level diffs
// between two texts. It is the engine underneath record reconciliation and
// the td command.
package textdiff

// Similarity returns a normalized similarity score in [0,1] for two strings.
// Identical strings (including two empties) score exactly 1. If exactly one
// side is empty the score is exactly 0. Strings whose rune lengths differ by
// more than half the longer length short-circuit to 0 without an edit
// distance pass. Everything else scores 1 - levenshtein/maxLen with unit
// cost insert, delete and substitute.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}

	gap := la - lb
	if gap < 0 {
		gap = -gap
	}

	// The edit distance is never less than the length gap.
	if 2*gap > maxLen {
		return 0
	}

	return 1 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein is the classic unit-cost edit distance computed over two
// rolling rows rather than a full matrix.
func levenshtein(ra, rb []rune) int {
	la, lb := len(ra), len(rb)

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)

	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i

		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			best := prev[j-1] + cost // substitute (or keep)
			if del := prev[j] + 1; del < best {
				best = del
			}
			if ins := curr[j-1] + 1; ins < best {
				best = ins
			}

			curr[j] = best
		}

		prev, curr = curr, prev
	}

	return prev[lb]
}
