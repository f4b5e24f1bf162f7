// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FindMatchingPrompts finds records in the snapshot matching the query
func FindMatchingPrompts(snapshot map[string]interface{}, query *ParsedQuery) []map[string]interface{} {
	prompts, ok := snapshot["prompts"].([]interface{})
	if !ok {
		return nil
	}

	var matches []map[string]interface{}
	position := 0

	for _, prompt := range prompts {
		rec, ok := prompt.(map[string]interface{})
		if !ok {
			continue
		}

		if !matchesName(rec, query.Name) {
			continue
		}

		// Position counts within the name matches so [N] selectors are
		// stable regardless of what else is in the snapshot.
		if query.Index == nil || matchesVariant(rec, position, query.Index) {
			matches = append(matches, rec)
		}
		position++
	}

	return matches
}

// matchesName checks if a record's name equals the query name or sits under
// it as a dotted prefix
func matchesName(rec map[string]interface{}, name string) bool {
	if name == "" {
		return true
	}

	recName, ok := rec["name"].(string)
	if !ok {
		return false
	}

	return recName == name || strings.HasPrefix(recName, name+".")
}

// matchesVariant checks a record against a variant selector. Integer
// selectors are positional among the name matches; string selectors match
// the record's versionLabel.
func matchesVariant(rec map[string]interface{}, position int, queryIndex interface{}) bool {
	switch v := queryIndex.(type) {
	case int:
		return position == v
	case string:
		label, ok := rec["versionLabel"].(string)
		return ok && label == v
	}

	return false
}

// generatePromptAddresses creates addresses for matched records
func generatePromptAddresses(matches []map[string]interface{}) []string {
	var addresses []string

	for _, match := range matches {
		addresses = append(addresses, buildPromptAddress(match))
	}

	return addresses
}

// buildPromptAddress constructs an address from record data. Labeled
// variants get the label in brackets so the address round-trips as a query.
func buildPromptAddress(rec map[string]interface{}) string {
	addr, _ := rec["name"].(string)

	if label, ok := rec["versionLabel"].(string); ok && label != "" {
		addr += fmt.Sprintf("[%q]", label)
	}

	return addr
}

// ExtractAttribute extracts the specified attribute from a matched record
func ExtractAttribute(rec map[string]interface{}, parsed *ParsedQuery) interface{} {
	if parsed.Attribute == "" {
		return nil
	}

	if attrValue, exists := rec[parsed.Attribute]; exists {
		return attrValue
	}

	return nil
}

// formatAttributeValue formats an attribute value for string output
func formatAttributeValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "null"
	default:
		if jsonBytes, err := json.Marshal(v); err == nil {
			return string(jsonBytes)
		}
		return fmt.Sprintf("%v", v)
	}
}

// printJSON outputs data as formatted JSON
func printJSON(data interface{}) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Printf("Error formatting JSON: %s\n", err)
		return
	}
	fmt.Println(string(jsonBytes))
}
