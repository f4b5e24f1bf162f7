// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package attrs

import (
	"embed"
	"fmt"
	"testing"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

//go:embed testdata/*.yaml
var casesFS embed.FS

// Case shapes mirror the fixture files under testdata. Time-sensitive wants
// use DYNAMIC_* sentinels so the fixtures stay stable across host zones.
type setCase struct {
	Name      string `yaml:"name"`
	Initial   []Attr `yaml:"initial"`
	Value     string `yaml:"value"`
	WantLen   int    `yaml:"wantLen"`
	WantAttrs []Attr `yaml:"wantAttrs"`
}

type transformCase struct {
	Name          string      `yaml:"name"`
	TransformSpec string      `yaml:"transformSpec"`
	Input         interface{} `yaml:"input"`
	Want          interface{} `yaml:"want"`
	Description   string      `yaml:"description"`
}

type globalSpecCase struct {
	Name      string   `yaml:"name"`
	Initial   []Attr   `yaml:"initial"`
	WantSpecs []string `yaml:"wantSpecs"`
}

type stringCase struct {
	Name     string `yaml:"name"`
	AttrList []Attr `yaml:"attrList"`
	Want     string `yaml:"want"`
}

func loadCases(t *testing.T, filename string, v any) {
	t.Helper()

	data, err := casesFS.ReadFile("testdata/" + filename)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, v))
}

func TestAttrList_Set(t *testing.T) {
	var tests []setCase
	loadCases(t, "set_cases.yaml", &tests)

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			a := AttrList(tt.Initial)

			require.NoError(t, a.Set(tt.Value))

			assert.Len(t, a, tt.WantLen)
			if tt.WantAttrs != nil {
				assert.Equal(t, tt.WantAttrs, []Attr(a))
			}
		})
	}
}

func TestAttrList_SetGlobalTransformSpec(t *testing.T) {
	var tests []globalSpecCase
	loadCases(t, "global_transform_cases.yaml", &tests)

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			a := AttrList(tt.Initial)

			require.NoError(t, a.SetGlobalTransformSpec())

			specs := make([]string, len(a))
			for i := range a {
				specs[i] = a[i].TransformSpec
			}
			assert.Equal(t, tt.WantSpecs, specs)
		})
	}
}

func TestAttr_Transform(t *testing.T) {
	var tests []transformCase
	loadCases(t, "transform_cases.yaml", &tests)

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			attr := Attr{TransformSpec: tt.TransformSpec}

			got := attr.Transform(tt.Input)

			switch tt.Want {
			case "DYNAMIC_LOCAL_TIME":
				assert.Equal(t, localWant(t, tt.Input), got, tt.Description)
			case "DYNAMIC_RELATIVE_TIME":
				assert.Equal(t, relativeWant(t, tt.Input), fmt.Sprintf("%v", got), tt.Description)
			default:
				assert.Equal(t, tt.Want, got, tt.Description)
			}
		})
	}
}

// localWant renders a fixture input the way the t spec does, in whatever
// zone the test host runs in.
func localWant(t *testing.T, input interface{}) string {
	t.Helper()

	s, ok := input.(string)
	require.True(t, ok, "time fixtures must be RFC3339 strings")
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed.In(time.Now().Location()).Format("2006-01-02T15:04:05MST")
}

// relativeWant renders a fixture input the way the T spec does.
func relativeWant(t *testing.T, input interface{}) string {
	t.Helper()

	s, ok := input.(string)
	require.True(t, ok, "time fixtures must be RFC3339 strings")
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return humanize.Time(parsed.In(time.Now().Location()))
}

func TestAttrList_String(t *testing.T) {
	var tests []stringCase
	loadCases(t, "string_cases.yaml", &tests)

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			a := AttrList(tt.AttrList)
			assert.Equal(t, tt.Want, a.String())
		})
	}
}

func TestAttrList_Type(t *testing.T) {
	a := AttrList{}
	assert.Equal(t, "list", a.Type())
}

// The t spec converts into the host zone, not TZ. Both sides of the assert
// go through the same Location so the test holds anywhere.
func TestTransform_LocalTimeUsesHostZone(t *testing.T) {
	t.Setenv("TZ", "")
	attr := Attr{TransformSpec: "t"}

	got := fmt.Sprintf("%v", attr.Transform("2026-03-01T09:30:00Z"))

	assert.Equal(t, localWant(t, "2026-03-01T09:30:00Z"), got)
}
