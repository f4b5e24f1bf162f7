// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pi

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsedQuery represents a parsed prompt address
type ParsedQuery struct {
	Name      string      // Prompt name or dotted name prefix, e.g. "acme.support.triage"
	Index     interface{} // Variant selector (int position, string version label, nil for all)
	Attribute string      // Record attribute, e.g. "model", "content"
}

// recordAttributes are the per-record fields an address can end in. Prompt
// names themselves contain dots, so a trailing segment is only peeled off as
// an attribute when it names one of these.
var recordAttributes = map[string]bool{
	"id":           true,
	"name":         true,
	"content":      true,
	"description":  true,
	"systemPrompt": true,
	"model":        true,
	"temperature":  true,
	"variables":    true,
	"versionLabel": true,
}

// ProcessQuery routes queries to appropriate handlers based on syntax
func ProcessQuery(snapshot map[string]interface{}, query string) {
	// Check for function evaluation mode
	if strings.HasPrefix(query, "/") {
		// Force function mode with leading /
		expression := strings.TrimPrefix(query, "/")
		result := evaluateFunction(expression, snapshot)
		fmt.Println(result)
		return
	}

	// Check for balanced parentheses (likely function)
	if hasBalancedParens(query) {
		// Assume function mode
		result := evaluateFunction(query, snapshot)
		fmt.Println(result)
		return
	}

	// Normal query mode
	jsonMode := strings.HasPrefix(query, ".")
	if jsonMode {
		query = strings.TrimPrefix(query, ".")
	}

	// Handle special queries
	if result := handleSpecialQueries(snapshot, query); result != nil {
		if jsonMode {
			printJSON(result)
		} else {
			fmt.Println(result)
		}
		return
	}

	// Parse the query
	parsed, err := ParseQuery(query)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		return
	}

	// Find matching prompts
	matches := FindMatchingPrompts(snapshot, parsed)

	// Handle attribute extraction if specified
	if parsed.Attribute != "" {
		if jsonMode {
			// Output JSON for attribute values
			for _, match := range matches {
				attrValue := ExtractAttribute(match, parsed)
				if attrValue != nil {
					printJSON(attrValue)
				}
			}
		} else {
			// Output attribute values as strings
			for _, match := range matches {
				attrValue := ExtractAttribute(match, parsed)
				if attrValue != nil {
					fmt.Println(formatAttributeValue(attrValue))
				}
			}
		}
	} else {
		// Normal prompt output (no attribute specified)
		if jsonMode {
			// Output JSON for all matches
			for _, match := range matches {
				printJSON(match)
			}
		} else {
			// Output list of prompt addresses
			addresses := generatePromptAddresses(matches)
			for _, addr := range addresses {
				fmt.Println(addr)
			}
		}
	}
}

// hasBalancedParens checks if a string has balanced parentheses
func hasBalancedParens(s string) bool {
	openCount := 0
	closeCount := 0

	for _, char := range s {
		switch char {
		case '(':
			openCount++
		case ')':
			closeCount++
		}
	}

	// Must have at least one pair of parens and they must be balanced
	return openCount > 0 && openCount == closeCount
}

// handleSpecialQueries handles built-in special queries
func handleSpecialQueries(snapshot map[string]interface{}, query string) interface{} {
	switch query {
	case "version":
		if val, ok := snapshot["version"]; ok {
			return val
		}
		return "not found"
	case "exported_at", "exportedAt":
		if val, ok := snapshot["exportedAt"]; ok {
			return val
		}
		return "not found"
	case "count":
		if prompts, ok := snapshot["prompts"].([]interface{}); ok {
			return len(prompts)
		}
		return 0
	}

	return nil
}

// ParseQuery parses a prompt address into structured components. The last
// dotted segment is treated as an attribute only when it names a known
// record field; everything before it is the prompt name, optionally with a
// variant selector in brackets on its final segment.
func ParseQuery(query string) (*ParsedQuery, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}

	parsed := &ParsedQuery{}

	// Split the query correctly, respecting quoted strings
	parts := smartSplit(query, ".")

	// Peel off a trailing attribute segment
	if len(parts) > 1 {
		last := parts[len(parts)-1]
		if recordAttributes[last] {
			parsed.Attribute = last
			parts = parts[:len(parts)-1]
		}
	}

	// The name may carry a variant selector in brackets
	name := strings.Join(parts, ".")
	if idx := strings.Index(name, "["); idx != -1 {
		indexStr := strings.TrimSuffix(name[idx+1:], "]")
		parsed.Index = parseIndex(indexStr)
		name = name[:idx]
	}
	parsed.Name = name

	return parsed, nil
}

// smartSplit splits a string by delimiter but respects quoted strings
func smartSplit(s, delimiter string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	i := 0

	for i < len(s) {
		switch {
		case s[i] == '"':
			inQuotes = !inQuotes
			current.WriteByte(s[i])
			i++
		case !inQuotes && i+len(delimiter) <= len(s) && s[i:i+len(delimiter)] == delimiter:
			parts = append(parts, current.String())
			current.Reset()
			i += len(delimiter)
		default:
			current.WriteByte(s[i])
			i++
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// parseIndex parses an index string into appropriate type
func parseIndex(indexStr string) interface{} {
	// Try to parse as integer
	if i, err := strconv.Atoi(indexStr); err == nil {
		return i
	}

	// Try to parse as quoted string
	if strings.HasPrefix(indexStr, `"`) && strings.HasSuffix(indexStr, `"`) {
		return indexStr[1 : len(indexStr)-1]
	}

	// Return as string
	return indexStr
}
