// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/pexctl/pexctl/internal/attrs"
	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/filters"
)

// InterfaceToString renders a cell value for display. Zero values render as
// the optional emptyValue (default ""), so tables can show a placeholder.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	empty := ""
	if len(emptyValue) > 0 {
		empty = emptyValue[0]
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return empty
	}

	// JSON decoding hands us strings and float64s; int and bool mostly show
	// up in hand-built rows.
	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		// Version numbers and counts are whole, so drop the decimal tail.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}

// NewTag parses one jsonapi struct tag into a schemaTag. Only attr tags
// survive; relationship tags collapse to the zero tag so the schema walker
// skips them. A holder prefix builds the dotted name for nested rows.
func NewTag(h string, s string) schemaTag {
	parts := strings.Split(s, ",")

	if parts[0] != "attr" {
		return schemaTag{}
	}

	tag := schemaTag{Kind: parts[0]}
	if len(parts) > 1 {
		tag.Name = parts[1]
		if h != "" {
			tag.Name = fmt.Sprintf("%s.%s", h, parts[1])
		}
	}
	if len(parts) > 2 {
		tag.Encoding = parts[2]
	}

	return tag
}

// SliceDiceSpit is the tail end of every query command: filter the rows,
// apply attr transforms, sort, then hand off to the writer the --output mode
// calls for. The optional postProcess callback lets a command reshape the
// filtered dataset before the table renders it.
func SliceDiceSpit(raw bytes.Buffer,
	attrs attrs.AttrList,
	cmd *cli.Command,
	parent string,
	w io.Writer,
	postProcess func([]map[string]interface{}) error) {

	if w == nil {
		w = os.Stdout
	}

	// Raw mode short-circuits everything. The payload goes out untouched.
	output := cmd.String("output")
	if output == "raw" {
		_, _ = w.Write(raw.Bytes())
		return
	}

	// An export document carries its records under "prompts". Flatten them
	// into the row schema the listing payloads already have, so one pipeline
	// serves both.
	if prompts := gjson.Parse(raw.String()).Get("prompts"); prompts.Exists() {
		raw = flattenExport(prompts, !cmd.Bool("short"))
	}

	// We keep the parent object from the document and throw away everything
	// else, notably "included", which we don't have a use case for.
	var fullDataset gjson.Result
	if parent != "" {
		fullDataset = gjson.Parse(raw.String()).Get(parent)
	} else {
		fullDataset = gjson.Parse(raw.String())
	}

	// Filter first so the transform and sort passes work the smaller set.
	filteredDataset := filters.FilterDataset(fullDataset, attrs, cmd.String("filter"))

	// THINK The local flag bolts a time transform onto every attr, timestamp
	// or not. Sniffing the first row for date-shaped values would let this
	// target only the attrs that hold one.
	if cmd.Bool("local") {
		for i := range attrs {
			attrs[i].TransformSpec += "t"
		}
	}

	for _, attr := range attrs {
		if attr.TransformSpec == "" {
			continue
		}
		for _, row := range filteredDataset {
			row[attr.OutputKey] = attr.Transform(row[attr.OutputKey])
		}
	}

	SortDataset(filteredDataset, cmd.String("sort"))

	switch output {
	case "json":
		// TODO Marshaling the row maps loses attr order. Emit keys in the
		// attr list's order instead.
		jsonOutput, err := json.Marshal(filteredDataset)
		if err != nil {
			log.Errorf("json render failed: %v", err)
		}
		_, _ = w.Write(jsonOutput)
	case "yaml":
		yamlOutput, err := yaml.Marshal(filteredDataset)
		if err != nil {
			log.Errorf("yaml render failed: %v", err)
		}
		_, _ = w.Write(yamlOutput)
	default:
		if postProcess != nil {
			if err := postProcess(filteredDataset); err != nil {
				log.Errorf("post-process failed: %v", err)
			}
		}

		TableWriter(filteredDataset, attrs, cmd, w)
	}
}

// TableWriter renders the result set as a lipgloss table honoring the color,
// titles and padding options. Output goes to w, or os.Stdout when w is nil.
func TableWriter(
	resultSet []map[string]interface{},
	attrs attrs.AttrList,
	cmd *cli.Command,
	w io.Writer) {

	if w == nil {
		w = os.Stdout
	}

	if len(resultSet) == 0 {
		return
	}

	base := lipgloss.NewStyle().Align(lipgloss.Left)
	headerStyle := base.Bold(true)
	evenRowStyle := base
	oddRowStyle := base

	if cmd.Bool("color") {
		title, even, odd := getColors("colors")

		headerStyle = headerStyle.Foreground(title)
		evenRowStyle = evenRowStyle.Foreground(even)
		oddRowStyle = oddRowStyle.Foreground(odd)
	}

	var rows [][]string
	for _, result := range resultSet {
		row := make([]string, 0, len(result))
		for _, attr := range attrs {
			if !attr.Include {
				continue
			}
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	banner(w, headerStyle, cmd.Metadata["header"])

	pad := cmd.Int("padding")
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).BorderBottom(false).
		BorderLeft(false).BorderRight(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := oddRowStyle
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Rows(rows...)

	if cmd.Bool("titles") {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(includedTitles(attrs)...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)

	banner(w, headerStyle, cmd.Metadata["footer"])
}

// banner renders an optional header or footer line parked in the command
// metadata. Absent metadata renders nothing.
func banner(w io.Writer, style lipgloss.Style, v any) {
	if s, ok := v.(string); ok {
		fmt.Fprintln(w, style.Render(s))
	}
}

// includedTitles returns the column titles for the attrs that made the cut.
func includedTitles(list attrs.AttrList) []string {
	var titles []string
	for _, attr := range list {
		if attr.Include {
			titles = append(titles, attr.OutputKey)
		}
	}
	return titles
}

// flattenExport takes the prompt records of an export document and flattens
// them into a common row schema. Record fields stay top-level and a composite
// "prompt" address is added so that the same attrs logic can process export
// payloads and the jsonapi listings alike.
func flattenExport(prompts gjson.Result, fullNames bool) bytes.Buffer {
	var flatRecords []map[string]interface{}

	for _, prompt := range prompts.Array() {
		flatRecord := make(map[string]interface{})
		for key, value := range prompt.Map() {
			flatRecord[key] = value.Value()
		}

		label := ""
		if flatRecord["versionLabel"] != nil {
			label = fmt.Sprintf("[%q]", flatRecord["versionLabel"])
		}

		promptID := fmt.Sprintf("%s%s", flatRecord["name"], label)
		if !fullNames {
			re := regexp.MustCompile(`^(?:[^.\[]+\.)+`)
			promptID = re.ReplaceAllString(promptID, "+.")
		}
		flatRecord["prompt"] = promptID

		flatRecords = append(flatRecords, flatRecord)
	}

	jsonBytes, err := json.Marshal(flatRecords)
	if err != nil {
		log.Errorf("flattenExport marshal: %v", err)
		return *bytes.NewBuffer([]byte{})
	}

	raw := *bytes.NewBuffer(jsonBytes)
	return raw
}

// getColors resolves the table palette. Explicit config wins so users can
// match their theme; otherwise pick per the terminal background.
func getColors(key string) (header, even, odd color.Color) {
	isDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)

	resolveColor := func(key string, light string, dark string) color.Color {
		if override, err := config.GetString(key); err == nil {
			return lipgloss.Color(override)
		}

		if isDark {
			return lipgloss.Color(dark)
		}
		return lipgloss.Color(light)
	}

	header = resolveColor(key+".title", "#6d28d9", "#c4b5fd")
	even = resolveColor(key+".even", "#1f1f1f", "#e8e8e8")
	odd = resolveColor(key+".odd", "#1d4ed8", "#7aa2ff")

	return
}
