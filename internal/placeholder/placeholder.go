// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package placeholder

import (
	"regexp"
)

// Prompt content references variables with double-brace placeholders, with
// optional whitespace padding inside the braces.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Names returns the distinct placeholder names referenced by content, in
// first-appearance order.
func Names(content string) []string {
	if content == "" {
		return nil
	}

	var names []string
	seen := make(map[string]bool)

	for _, m := range placeholderRe.FindAllStringSubmatch(content, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names
}

// Unbound returns the placeholders referenced by content that have no entry
// in the variables map. Matching is exact and case-sensitive. A record with
// no placeholders, or with every placeholder bound, yields nil.
func Unbound(content string, vars map[string]interface{}) []string {
	var unbound []string

	for _, name := range Names(content) {
		if _, ok := vars[name]; !ok {
			unbound = append(unbound, name)
		}
	}

	return unbound
}

// IsUnbound reports whether content references at least one placeholder that
// the variables map does not bind.
func IsUnbound(content string, vars map[string]interface{}) bool {
	return len(Unbound(content, vars)) > 0
}
