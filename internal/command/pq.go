// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/backend"
	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/export"
	"github.com/pexctl/pexctl/internal/loader"
	"github.com/pexctl/pexctl/internal/meta"
	"github.com/pexctl/pexctl/internal/output"
)

// pqDefaultAttrs specifies the default attributes displayed for prompt
// records in the "pq" command output. Name and versionLabel feed the
// composite prompt column and stay available for filtering.
var pqDefaultAttrs = []string{
	"!.name", "!.versionLabel", ".prompt", ".id", ".model", "!.temperature",
	".content:content:n32", "!.variables", "!.description",
}

// pqCommandAction is the action handler for the "pq" subcommand. It reads an
// export snapshot (including optional decryption), supports --tldr short-
// circuit, and emits prompt records per common flags.
func pqCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if HandleTLDR(ctx, cmd, "pq") {
		return nil
	}

	if HandleSchema(cmd, reflect.TypeOf(export.Record{})) {
		return nil
	}

	config.Config.Namespace = "pq"

	// Figure out what type of source we're reading from.
	be, err := backend.NewBackend(ctx, *cmd)
	if err != nil {
		return err
	}
	log.Debugf("typBe: %v", be)

	attrs := BuildAttrs(cmd, pqDefaultAttrs...)
	log.Debugf("attrs: %v", attrs)

	var doc []byte
	doc, err = be.Snapshot()
	if err != nil {
		return err
	}

	doc, err = export.MaybeGunzip(doc)
	if err != nil {
		return err
	}

	// If the export is encrypted, there's a little more work to do.
	if export.IsEncrypted(doc) {
		// First, look to the flag for passphrase value.
		passphrase := cmd.String("passphrase")

		// Next look in env and use it if found.
		if passphrase == "" {
			passphrase = os.Getenv("PEXCTL_PASSPHRASE")
		}

		// Finally, prompt for passphrase
		if passphrase == "" {
			passphrase, _ = loader.GetPassphrase()
		}

		doc, err = export.Decrypt(doc, passphrase)
		if err != nil {
			return fmt.Errorf("failed to decrypt: %w", err)
		}
	}

	var raw bytes.Buffer
	raw.Write(doc)

	postProcess := func(dataset []map[string]interface{}) error {
		if cmd.Bool("chop") {
			chopPrefix(dataset)
		}

		return nil
	}

	output.SliceDiceSpit(raw, attrs, cmd, "", os.Stdout, postProcess)

	return nil
}

// pqCommandBuilder constructs the cli.Command for "pq", wiring metadata,
// flags, and action/validator handlers.
func pqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "pq",
		Usage:     "prompt query",
		UsageText: "pexctl pq [RootDir] [options]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "chop",
				Usage: "chop common prompt name prefix",
				Value: false,
			},
			&cli.StringFlag{
				Name:        "ev",
				Usage:       "export version to query",
				Value:       "0",
				HideDefault: true,
			},
			&cli.IntFlag{
				Name:   "limit",
				Hidden: true,
				Usage:  "limit export versions listed",
				Value:  99999,
			},
			&cli.StringFlag{
				Name:  "passphrase",
				Usage: "encrypted export passphrase",
			},
			&cli.BoolFlag{
				Name:  "short",
				Usage: "collapse dotted prompt name paths",
				Value: false,
			},
			// We don't want pq to get default host and org values from the config.
			// Instead, we'll depend on the source or, in exceptional cases, explicit
			// --host and --org flags.
			NewHostFlag("pq"),
			NewOrgFlag("pq"),
			labelFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) error {
			// If --chop is set, --short must not be set.
			if cmd.Bool("chop") {
				_ = cmd.Set("short", "false")
			}

			return nil
		},
		Action: pqCommandAction,
		Meta:   meta,
	}).Build()
}

// chopPrefix scans all dot-delimited string values in the dataset and removes
// leading segments that are identical across all entries. Starting from
// the left, it removes each segment that matches in all entries, then
// stops when it encounters a position where segments differ. Removed
// segments are replaced with "..".
func chopPrefix(dataset []map[string]interface{}) {
	if len(dataset) == 0 {
		return
	}

	// Collect all string values by key across all entries
	// Map from key -> list of (entryIdx, segments)
	type segmentedValue struct {
		entryIdx int
		segments []string
	}

	keyValues := make(map[string][]segmentedValue)

	for entryIdx, entry := range dataset {
		for key, val := range entry {
			if str, ok := val.(string); ok {
				segments := strings.Split(str, ".")
				keyValues[key] = append(keyValues[key], segmentedValue{entryIdx: entryIdx, segments: segments})
			}
		}
	}

	// For each key, find and apply the common prefix
	for key, values := range keyValues {
		if len(values) == 0 {
			continue
		}

		// Find common leading segments for this key
		var commonCount int
		for segIdx := 0; ; segIdx++ {
			// Check if all entries have a segment at this position
			if segIdx >= len(values[0].segments) {
				break
			}

			// Get the segment value from the first entry
			expectedSeg := values[0].segments[segIdx]

			// Check if all entries have the same segment at this position
			allMatch := true
			for _, val := range values {
				if segIdx >= len(val.segments) || val.segments[segIdx] != expectedSeg {
					allMatch = false
					break
				}
			}

			if !allMatch {
				break
			}

			commonCount++
		}

		// Need at least 2 common segments to be worth chopping.
		if commonCount < 2 {
			continue
		}

		// Never chop past the second-to-last segment. Ensure at least 2
		// segments remain in all values after chopping.
		minSegments := len(values[0].segments)
		for _, val := range values {
			if len(val.segments) < minSegments {
				minSegments = len(val.segments)
			}
		}
		maxChop := minSegments - 2
		if maxChop < 2 {
			continue
		}
		if commonCount > maxChop {
			commonCount = maxChop
		}

		// Build the prefix to remove
		prefixSegs := values[0].segments[:commonCount]
		prefixToRemove := strings.Join(prefixSegs, ".") + "."

		// Remove the common prefix from all entries that have this key
		for _, val := range values {
			originalValue := strings.Join(val.segments, ".")
			if strings.HasPrefix(originalValue, prefixToRemove) {
				dataset[val.entryIdx][key] = ".." + originalValue[len(prefixToRemove):]
			}
		}
	}
}
