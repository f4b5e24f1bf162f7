// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"sort"
	"strings"
)

// SortDataset orders rows in place by a --sort spec: comma-separated output
// keys, each optionally prefixed with - for descending and ! for a
// case-sensitive compare.
// THINK Issue 5
func SortDataset(resultSet []map[string]interface{}, spec string) {
	keys := strings.Split(spec, ",")

	sort.SliceStable(resultSet, func(i, j int) bool {
		for _, key := range keys {
			descending := strings.HasPrefix(key, "-")
			key = strings.TrimPrefix(key, "-")
			caseSensitive := strings.HasPrefix(key, "!")
			key = strings.TrimPrefix(key, "!")

			switch cmp := compareCells(resultSet[i][key], resultSet[j][key], caseSensitive); {
			case cmp == 0:
				continue
			case descending:
				return cmp > 0
			default:
				return cmp < 0
			}
		}
		return false
	})
}

// compareCells orders two cell values. Numeric pairs compare as whole
// numbers (version numbers and counts), everything else as rendered
// strings, which also covers bools.
func compareCells(a, b interface{}, caseSensitive bool) int {
	af, aOk := a.(float64)
	bf, bOk := b.(float64)
	if aOk && bOk {
		ai, bi := int(af), int(bf)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}

	as := InterfaceToString(a)
	bs := InterfaceToString(b)
	if !caseSensitive {
		as = strings.ToLower(as)
		bs = strings.ToLower(bs)
	}
	return strings.Compare(as, bs)
}
