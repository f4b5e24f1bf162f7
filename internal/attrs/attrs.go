// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package attrs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pexctl/pexctl/internal/log"
)

// Attr is one output column: where the value comes from in the record JSON,
// what to call it in the output, and how to transform it on the way out.
type Attr struct {
	// Drill path into the record. Resolved under the record's attributes key
	// unless the spec led with a dot.
	Key string `yaml:"key"`
	// False for attrs that exist only so filters and sorts can reach them.
	Include bool `yaml:"include"`
	// Column name in rendered output. Doubles as the table title.
	// TODO Consider a separate title field.
	OutputKey string `yaml:"outputKey"`
	// Single-letter transform directives applied at render time.
	TransformSpec string `yaml:"transformSpec"`
}

// lengthSpecRe picks the numeric width directives out of a transform spec.
var lengthSpecRe = regexp.MustCompile(`-?\d+`)

// Transform runs the attr's transform spec against one value and returns
// the result. Specs compose single-letter directives: t/T render RFC3339
// timestamps as local time or time-ago, l/L and u/U force case, n/N
// flatten multiline values, and a number truncates (negative keeps both
// ends). Later directives win over earlier ones.
func (a *Attr) Transform(value interface{}) interface{} {

	// TODO Teach the directives about non-string values.
	result, ok := value.(string)
	if !ok {
		log.Tracef("not transformable: %T", value)
		return value
	}

	result = a.applyTimeSpec(result)
	result = a.applyCaseSpec(result)
	result = a.applyFlattenSpec(result)
	result = a.applyLengthSpec(result)

	return result
}

// applyTimeSpec converts an RFC3339 value to local time (t) or a humanized
// time-ago (T). Values that don't parse pass through untouched.
func (a *Attr) applyTimeSpec(result string) string {
	if !strings.ContainsAny(a.TransformSpec, "tT") {
		return result
	}

	now := time.Now()
	tz, _ := now.In(time.Local).Zone()
	if tz == "" {
		return result
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return result
	}

	t, err := time.Parse(time.RFC3339, result)
	if err != nil {
		return result
	}

	local := t.In(loc)
	if strings.Contains(a.TransformSpec, "T") {
		result = humanize.Time(local)
		log.Tracef("humanized: %s", result)
	} else {
		result = local.Format("2006-01-02T15:04:05MST")
		log.Tracef("localized: %s", result)
	}

	return result
}

// applyCaseSpec forces the value lower (l) or upper (u) case. Whichever
// directive appears last wins, so a global *::U can still be overridden by a
// per-attr ::l.
func (a *Attr) applyCaseSpec(result string) string {
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
		log.Tracef("downcased: %s", result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
		log.Tracef("upcased: %s", result)
	}

	return result
}

// applyFlattenSpec (n) squeezes whitespace runs, newlines included, into
// single spaces. Prompt content is routinely multiline and would otherwise
// tear up text table rows.
func (a *Attr) applyFlattenSpec(result string) string {
	if !strings.ContainsAny(a.TransformSpec, "nN") {
		return result
	}

	flattened := strings.Join(strings.Fields(result), " ")
	log.Tracef("flattened: result=%s", flattened)

	return flattened
}

// applyLengthSpec truncates the value to the last width directive in the
// spec. A negative width keeps the head and tail of the value with ".."
// between them.
func (a *Attr) applyLengthSpec(result string) string {
	if a.TransformSpec == "" {
		return result
	}

	match := lengthSpecRe.FindAllString(a.TransformSpec, -1)
	if len(match) == 0 {
		return result
	}

	// The last directive overrides any earlier (global) one.
	l, _ := strconv.Atoi(match[len(match)-1])
	abs := int(math.Abs(float64(l)))
	if len(result) <= abs {
		return result
	}

	if l < 0 {
		lr := abs/2 - 1
		left := result[0:lr]
		right := result[len(result)-lr:]
		result = left + ".." + right
		log.Tracef("middle elided: %s", result)
	} else {
		result = result[:l]
		log.Tracef("truncated: %s", result)
	}

	return result
}

// AttrList is the ordered set of columns a command will render.
type AttrList []Attr

// Set parses a comma-delimited --attrs value into the list. A spec naming an
// attr already present, a command default usually, updates that entry in
// place instead of appending.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		log.Debugf("nothing to set: %q", value)
		return nil
	}

	for _, spec := range strings.Split(value, ",") {
		attr := parseSpec(spec)

		if a.update(attr) {
			continue
		}

		// A leading dot anchors the key at the record root. Everything else
		// resolves under the attributes key.
		if strings.HasPrefix(attr.Key, ".") {
			attr.Key = attr.Key[1:]
		} else if attr.Key != "*" {
			attr.Key = "attributes." + attr.Key
		}
		log.Tracef("key anchored: %s", attr.Key)

		*a = append(*a, attr)
	}

	return nil
}

// parseSpec splits one colon-delimited --attrs entry into key, output name
// and transform spec. Only the key is required; the output name defaults to
// the key's last dotted segment.
func parseSpec(spec string) Attr {
	const (
		jsonIdx = iota
		outputIdx
		transformIdx
	)

	fields := strings.Split(spec, ":")
	attr := Attr{Include: true}

	// A ! prefix keeps the attr available for filtering and sorting but out
	// of the rendered output. The global * entry is never rendered either.
	attr.Key = strings.TrimSpace(fields[jsonIdx])
	if strings.HasPrefix(attr.Key, "!") {
		attr.Include = false
		attr.Key = attr.Key[1:]
	}
	if attr.Key == "*" {
		attr.Include = false
	}

	switch {
	case len(fields) == 1:
		segments := strings.Split(attr.Key, ".")
		attr.OutputKey = segments[len(segments)-1]
	case fields[outputIdx] != "":
		attr.OutputKey = strings.TrimSpace(fields[outputIdx])
	default:
		attr.OutputKey = attr.Key
	}

	if len(fields) > transformIdx {
		attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
	}
	log.Tracef("spec parsed: key=%s, outputKey=%s, include=%v",
		attr.Key, attr.OutputKey, attr.Include)

	return attr
}

// update folds attr into an existing entry, matching on either the drill key
// or the output name. Reports whether a match was found.
func (a *AttrList) update(attr Attr) bool {
	for i := range *a {
		if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
			(*a)[i].Include = attr.Include
			(*a)[i].OutputKey = attr.OutputKey
			(*a)[i].TransformSpec = attr.TransformSpec
			log.Tracef("updated in place: %d", i)
			return true
		}
	}

	return false
}

// SetGlobalTransformSpec folds the * entry's transform spec into every attr,
// ahead of the attr's own directives so the specific ones win.
func (a *AttrList) SetGlobalTransformSpec() error {
	var global string
	for _, attr := range *a {
		if attr.Key == "*" {
			global = attr.TransformSpec
			break
		}
	}

	if global == "" {
		log.Debugf("no * spec to fold")
		return nil
	}

	for i := range *a {
		(*a)[i].TransformSpec = global + "," + (*a)[i].TransformSpec
	}
	log.Debugf("global spec prepended: spec=%s", global)

	return nil
}

// String renders the list back into --attrs form.
func (a *AttrList) String() string {
	specs := make([]string, 0, len(*a))
	for _, attr := range *a {
		specs = append(specs, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}

	return strings.Join(specs, ",")
}

// Type satisfies the cli flag.Value interface.
func (a *AttrList) Type() string { return "list" }
