// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pexctl/pexctl/internal/export"
)

// FieldChange is one field that differs between two revisions of a record.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// FieldDiff compares the comparable fields of two records and returns one
// FieldChange per differing field, in a fixed order: content, description,
// system, model, temperature, then variables. Nil values normalize to the
// empty string, and the variables map is compared by its canonical JSON
// form, contributing at most one change. Equal records yield nil.
func FieldDiff(a, b *export.Record) []FieldChange {
	if a == nil {
		a = &export.Record{}
	}
	if b == nil {
		b = &export.Record{}
	}

	pairs := []struct {
		field      string
		oldV, newV string
	}{
		{"content", a.Content, b.Content},
		{"description", a.Description, b.Description},
		{"system", a.System, b.System},
		{"model", a.Model, b.Model},
		{"temperature", formatTemperature(a.Temperature), formatTemperature(b.Temperature)},
	}

	var changes []FieldChange
	for _, p := range pairs {
		if p.oldV != p.newV {
			changes = append(changes, FieldChange{Field: p.field, Old: p.oldV, New: p.newV})
		}
	}

	oldVars := canonicalVariables(a.Variables)
	newVars := canonicalVariables(b.Variables)
	if oldVars != newVars {
		changes = append(changes, FieldChange{Field: "variables", Old: oldVars, New: newVars})
	}

	return changes
}

// formatTemperature renders a temperature pointer deterministically. Nil is
// the empty string, everything else the shortest round-trippable float form.
func formatTemperature(t *float64) string {
	if t == nil {
		return ""
	}

	return strconv.FormatFloat(*t, 'g', -1, 64)
}

// canonicalVariables serializes a variables map key-sorted, with nil and
// empty both rendering as {} so absence and emptiness compare equal.
func canonicalVariables(vars map[string]interface{}) string {
	if len(vars) == 0 {
		return "{}"
	}

	out, err := json.Marshal(vars)
	if err != nil {
		// Unmarshalable values only happen with hand-built maps. Still
		// deterministic enough to compare.
		return fmt.Sprintf("%v", vars)
	}

	return string(out)
}
