// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// segmentRe accepts one dot-path segment: a key, optionally followed by
// [], [N] or [*].
var segmentRe = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(\[(\d|\*)?\])?$`)

// Driller walks jsonData along a dot path. Segments may carry an array
// suffix; without one, a single-element array is unwrapped so the common
// export shape (one prompt, one version) reads like an object. Anything
// unmatchable yields an empty Result.
func Driller(jsonData string, path string) gjson.Result {
	current := gjson.Parse(jsonData)

	for _, segment := range strings.Split(path, ".") {
		m := segmentRe.FindStringSubmatch(segment)
		if len(m) == 0 {
			return gjson.Result{}
		}

		val := current.Get(m[1])
		if val.IsArray() {
			var ok bool
			if val, ok = pick(val, m[3]); !ok {
				return gjson.Result{}
			}
		}
		current = val
	}

	return current
}

// pick resolves an array segment. An explicit index must be in range; no
// index unwraps only when exactly one element is present, otherwise the
// whole list passes through.
func pick(val gjson.Result, index string) (gjson.Result, bool) {
	arr := val.Array()

	if index == "" {
		if len(arr) == 1 {
			return arr[0], true
		}
		return val, true
	}

	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(arr) {
		return gjson.Result{}, false
	}
	return arr[i], true
}
