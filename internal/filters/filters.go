// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/pexctl/pexctl/internal/attrs"
	"github.com/pexctl/pexctl/internal/driller"
	"github.com/pexctl/pexctl/internal/placeholder"
)

// filterRegex splits one --filter entry into its parts: an optional leading
// underscore marking the filter server side, the key, an operand out of
// = ^ ~ < > @ / with optional ! negation, and the comparison value.
// "model=gpt-4o", "name^acme.", "tags!@prod" and "_search=triage" all parse;
// a bare key like "unbound" parses with no operand at all.
var filterRegex = regexp.MustCompile(`^(_)?([^!?=^~<>@/]*)(!?[=^~<>@/])?(.*)$`)

// Filter is one parsed --filter expression.
type Filter struct {
	Key        string `yaml:"key"`
	Negate     bool   `yaml:"negate"`
	Operand    string `yaml:"operand"`
	ServerSide bool   `yaml:"serverSide"`
	Value      string `yaml:"value"`
}

// BuildFilters parses a --filter spec into its Filter expressions. Entries
// that do not parse are logged and dropped rather than failing the command.
func BuildFilters(spec string) []Filter {
	if spec == "" {
		return nil
	}

	// Commas split entries unless a value needs them, in which case
	// PEXCTL_FILTER_DELIM picks a different delimiter.
	delim := ","
	if d, ok := os.LookupEnv("PEXCTL_FILTER_DELIM"); ok {
		delim = d
	}

	//nolint:prealloc
	var filters []Filter
	for _, entry := range strings.Split(spec, delim) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		f, ok := parseFilter(entry)
		if !ok {
			continue
		}
		filters = append(filters, f)
	}

	return filters
}

// parseFilter pulls one entry apart into key, operand, negation and value.
// Reports false for entries with no usable key.
func parseFilter(entry string) (Filter, bool) {
	parts := filterRegex.FindStringSubmatch(entry)
	if parts == nil {
		log.Error("invalid filter: " + entry)
		return Filter{}, false
	}

	f := Filter{
		ServerSide: parts[1] == "_",
		Key:        strings.TrimSpace(parts[2]),
		Operand:    parts[3],
		Value:      parts[4],
	}

	if f.Key == "" {
		log.Error("invalid filter: empty key in " + entry)
		return Filter{}, false
	}

	if strings.HasPrefix(f.Operand, "!") {
		f.Negate = true
		f.Operand = strings.TrimPrefix(f.Operand, "!")
	}

	return f, true
}

// FilterDataset projects each candidate row through the attr list and keeps
// the rows that pass every local filter. Server-side filters were already
// consumed before the listing came back, so only their client-side siblings
// run here.
func FilterDataset(candidates gjson.Result, attrs attrs.AttrList, spec string) []map[string]interface{} {
	filters := BuildFilters(spec)

	//nolint:prealloc
	var rows []map[string]interface{}
	for _, candidate := range candidates.Array() {
		if !applyFilters(candidate, attrs, filters) {
			continue
		}
		rows = append(rows, projectRow(candidate, attrs))
	}

	return rows
}

// projectRow drills every attr key out of the candidate record. Transforms
// wait for the output phase; this pass only reshapes.
func projectRow(candidate gjson.Result, attrs attrs.AttrList) map[string]interface{} {
	row := make(map[string]interface{}, len(attrs))
	for _, attr := range attrs {
		row[attr.OutputKey] = driller.Driller(candidate.Raw, attr.Key).Value()
	}
	return row
}

// applyFilters reports whether the candidate row survives every filter. A
// filter naming an unknown key warns and is skipped, so a typo never empties
// the whole listing.
func applyFilters(candidate gjson.Result, attrs attrs.AttrList,
	filters []Filter) bool {
	for _, filter := range filters {
		// Server-side filters ran on the API. Nothing to do locally.
		if filter.ServerSide {
			continue
		}

		// unbound is a computed check against the prompt content rather
		// than a comparison on a projected attribute.
		if filter.Key == "unbound" {
			return isUnbound(candidate, filter)
		}

		key := resolveKey(attrs, filter.Key)
		if key == "" {
			msg := fmt.Sprintf("no column named %s to filter on", filter.Key)
			log.Error(msg)
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
			continue
		}

		// A missing or null field can never satisfy a comparison.
		value := driller.Driller(candidate.Raw, key).Value()
		if value == nil {
			return false
		}

		if !evalOperand(value, filter) {
			return false
		}
	}

	return true
}

// resolveKey maps a filter key, which users give as the output column name,
// back to the drill path of the matching attr.
func resolveKey(attrs attrs.AttrList, outputKey string) string {
	for _, attr := range attrs {
		if attr.OutputKey == outputKey {
			return attr.Key
		}
	}
	return ""
}

// evalOperand dispatches on the drilled value's type. Bools compare as their
// string form, numbers numerically, and composite values only support @.
func evalOperand(value interface{}, filter Filter) bool {
	switch v := value.(type) {
	case string:
		return checkStringOperand(v, filter)
	case bool:
		return checkStringOperand(strconv.FormatBool(v), filter)
	}

	if num, ok := toFloat64(value); ok {
		return checkNumericOperand(num, filter)
	}

	if filter.Operand == "@" {
		return checkContainsOperand(value, filter)
	}

	return true
}

// checkContainsOperand implements @ for composite values: membership for
// lists, key presence for maps.
func checkContainsOperand(value interface{}, filter Filter) bool {
	switch val := value.(type) {
	case []any:
		matched := false
		for _, item := range val {
			if item == filter.Value {
				matched = true
				break
			}
		}
		return matched != filter.Negate
	case map[string]any:
		_, matched := val[filter.Value]
		return matched != filter.Negate
	default:
		log.Errorf("@ cannot search a %T value", value)
		return false
	}
}

// checkNumericOperand compares numerically. The filter value must itself
// parse as a number; != arrives as Negate plus =.
func checkNumericOperand(value float64, filter Filter) bool {
	want, err := strconv.ParseFloat(strings.TrimSpace(filter.Value), 64)
	if err != nil {
		log.Errorf("filter value %q is not numeric", filter.Value)
		return false
	}

	var matched bool
	switch filter.Operand {
	case "=":
		matched = value == want
	case ">":
		matched = value > want
	case "<":
		matched = value < want
	default:
		log.Errorf("operand %q does not compare numbers", filter.Operand)
		return false
	}

	return matched != filter.Negate
}

// checkStringOperand compares string values. > and < are lexicographic, ~ is
// case-insensitive equality and / treats the filter value as a regular
// expression.
func checkStringOperand(value string, filter Filter) bool {
	var matched bool
	switch filter.Operand {
	case "=":
		matched = value == filter.Value
	case "~":
		matched = strings.EqualFold(value, filter.Value)
	case "^":
		matched = strings.HasPrefix(value, filter.Value)
	case ">":
		matched = value > filter.Value
	case "<":
		matched = value < filter.Value
	case "@":
		matched = strings.Contains(value, filter.Value)
	case "/":
		m, err := regexp.MatchString(filter.Value, value)
		if err != nil {
			log.Errorf("filter regex %q does not compile", filter.Value)
			return false
		}
		matched = m
	default:
		log.Errorf("operand %q is not a filter operand", filter.Operand)
		return false
	}

	return matched != filter.Negate
}

// isUnbound reports whether the candidate passes the unbound filter. With no
// value, or "true", the filter keeps records whose content references a
// placeholder the variables map does not bind; "false" keeps fully bound
// records instead.
func isUnbound(candidate gjson.Result, filter Filter) bool {
	content, ok := driller.Driller(candidate.Raw, "content").Value().(string)
	if !ok {
		return true
	}

	// A missing variables map leaves every placeholder unbound.
	vars, _ := driller.Driller(candidate.Raw, "variables").Value().(map[string]interface{})

	wantUnbound := filter.Value == "" || filter.Value == "true"
	return placeholder.IsUnbound(content, vars) == wantUnbound
}

// toFloat64 widens any numeric value to float64 for comparison. Non-numeric
// kinds report false.
func toFloat64(v interface{}) (float64, bool) {
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}
