// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"

	"github.com/apex/log"
)

// schemaTag is one attr discovered on a row type for the --schema listing.
type schemaTag struct {
	Kind     string
	Name     string
	Encoding string
}

// print renders the tag for the schema listing.
func (t schemaTag) print() string {
	return t.Name
}

// Nested structs flatten one level into the listing. Anything deeper is not
// addressable through --attrs anyway.
const maxSchemaDepth = 1

// DumpSchema writes the attr tags discovered on a row type, sorted, one per
// line. If w is nil, os.Stdout is used.
func DumpSchema(prefix string, typ reflect.Type, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}

	fmt.Fprintln(w,
		`Record level attributes directly addressable with the --attrs flag.
The full document, relationships included, comes out with --output=raw.
man pexctl-attrs covers the attrs syntax.`)
	fmt.Fprintln(w)

	tags := walkSchema(prefix, typ, 0)
	if len(tags) == 0 {
		log.Debugf("no jsonapi tags on %s", typ.Name())
		return
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Kind == tags[j].Kind {
			return tags[i].Name < tags[j].Name
		}
		return tags[i].Kind < tags[j].Kind
	})

	for _, tag := range tags {
		fmt.Fprintln(w, tag.print())
	}
}

// walkSchema gathers the jsonapi attr tags of typ, descending into nested
// structs up to maxSchemaDepth. Relationship tags never survive NewTag, so
// only attrs recurse.
func walkSchema(holder string, typ reflect.Type, depth int) []schemaTag {
	var tags []schemaTag

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tagValue, ok := field.Tag.Lookup("jsonapi")
		if !ok {
			continue
		}

		tag := NewTag(holder, tagValue)
		if tag.Kind != "attr" {
			continue
		}
		tags = append(tags, tag)

		if depth >= maxSchemaDepth {
			continue
		}
		if nested := structType(field.Type); nested != nil {
			tags = append(tags, walkSchema(tag.Name, nested, depth+1)...)
		}
	}

	return tags
}

// structType unwraps one pointer level and returns the struct type behind
// ft, or nil when ft holds no struct.
func structType(ft reflect.Type) reflect.Type {
	switch ft.Kind() {
	case reflect.Struct:
		return ft
	case reflect.Ptr:
		if ft.Elem().Kind() == reflect.Struct {
			return ft.Elem()
		}
	}

	return nil
}
