// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/attrs"
	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/export"
	"github.com/pexctl/pexctl/internal/loader"
	"github.com/pexctl/pexctl/internal/meta"
	"github.com/pexctl/pexctl/internal/output"
	"github.com/pexctl/pexctl/internal/placeholder"
)

// ansiColorRegex matches ANSI escape sequences used for coloring terminal
// output. Matches patterns like ESC[1m, ESC[0m, ESC[31m, etc.
var ansiColorRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// ModelStat aggregates the records of an export snapshot by model.
type ModelStat struct {
	Model   string `json:"model"`
	Records int    `json:"records"`
	Unbound int    `json:"unbound"`
}

// xsDefaultAttrs specifies the default attributes displayed for model stats.
var xsDefaultAttrs = []string{".model", ".records", ".unbound"}

// xsCommandAction is the action handler for the "xs" subcommand. It reads an
// export document from a file or stdin, aggregates the records by model, and
// displays the counts in columnar format.
func xsCommandAction(ctx context.Context, cmd *cli.Command) error {
	meta := cmd.Metadata["meta"].(meta.Meta)
	log.Debugf("Executing action for %v", meta.Args[1:])

	config.Config.Namespace = "xs"

	// Get the positional argument (the export input file or default to stdin)
	var exportInput string
	if len(meta.Args) > 2 && meta.Args[2] != "-" {
		exportInput = meta.Args[2]
	} else {
		exportInput = "-"
	}

	var input io.ReadCloser
	var err error

	// Determine input source: file or stdin
	if exportInput == "-" {
		input = os.Stdin
	} else {
		if info, err := os.Stat(exportInput); err != nil {
			return fmt.Errorf("export file does not exist: %s", exportInput)
		} else if info.IsDir() {
			return fmt.Errorf("export input cannot be a directory: %s", exportInput)
		}
		input, err = os.Open(exportInput)
		if err != nil {
			return fmt.Errorf("failed to open export file: %w", err)
		}
		defer input.Close()
	}

	doc, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("error reading export input: %w", err)
	}

	doc, err = export.MaybeGunzip(doc)
	if err != nil {
		return err
	}

	// If the export is encrypted, there's a little more work to do.
	if export.IsEncrypted(doc) {
		passphrase := cmd.String("passphrase")
		if passphrase == "" {
			passphrase = os.Getenv("PEXCTL_PASSPHRASE")
		}
		if passphrase == "" {
			passphrase, _ = loader.GetPassphrase()
		}

		doc, err = export.Decrypt(doc, passphrase)
		if err != nil {
			return fmt.Errorf("failed to decrypt: %w", err)
		}
	}

	snap, err := parseExportSummary(doc)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("\nExport version %d, %d prompts, exported %s",
		snap.Version, len(snap.Prompts),
		snap.ExportedAt.Format(time.RFC3339))
	if cmd.String("filter") != "" {
		header += " (filtered)"
	}
	header += ":"
	cmd.Metadata["header"] = header

	stats := summarizeExport(snap)

	if unbound := totalUnbound(stats); unbound > 0 {
		cmd.Metadata["footer"] = fmt.Sprintf(
			"\n%d prompts have unbound placeholders.", unbound)
	}

	// Convert stats to the format expected by output framework
	// The output framework expects either a JSON array of objects or
	// a document with a specific structure.
	var jsonData []byte
	if jsonData, err = json.Marshal(stats); err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	// Build attributes from defaults and command flags
	attrList := attrs.AttrList{}
	for _, attr := range xsDefaultAttrs {
		_ = attrList.Set(attr)
	}
	if userAttrs := cmd.String("attrs"); userAttrs != "" {
		_ = attrList.Set(userAttrs)
	}

	// Use the output framework to display results
	var raw bytes.Buffer
	raw.Write(jsonData)

	output.SliceDiceSpit(raw, attrList, cmd, "", os.Stdout, nil)

	return nil
}

// parseExportSummary strips any ANSI color codes captured from terminal
// output and decodes the document into a snapshot.
func parseExportSummary(doc []byte) (*export.Snapshot, error) {
	doc = ansiColorRegex.ReplaceAll(doc, nil)

	return export.Parse(doc)
}

// summarizeExport aggregates the snapshot's records by model, counting the
// records that reference placeholders their variables don't bind. Records
// with no model land under "(none)". Results are sorted by model name.
func summarizeExport(snap *export.Snapshot) []ModelStat {
	idx := make(map[string]*ModelStat)

	for i := range snap.Prompts {
		rec := &snap.Prompts[i]

		model := rec.Model
		if model == "" {
			model = "(none)"
		}

		st, ok := idx[model]
		if !ok {
			st = &ModelStat{Model: model}
			idx[model] = st
		}

		st.Records++
		if placeholder.IsUnbound(rec.Content, rec.Variables) {
			st.Unbound++
		}
	}

	stats := make([]ModelStat, 0, len(idx))
	for _, st := range idx {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Model < stats[j].Model
	})

	return stats
}

// totalUnbound sums the unbound counts across all model stats.
func totalUnbound(stats []ModelStat) int {
	var total int
	for _, st := range stats {
		total += st.Unbound
	}

	return total
}

// xsCommandBuilder constructs the "xs" subcommand.
func xsCommandBuilder(meta meta.Meta) *cli.Command {
	flags := NewGlobalFlags()

	// Remove the --attrs flag since xs doesn't use it.
	var xs []cli.Flag
	for _, flag := range flags {
		if flag.Names()[0] != "attrs" {
			xs = append(xs, flag)
		}
	}

	return &cli.Command{
		Name:      "xs",
		Usage:     "export summary",
		UsageText: "pexctl xs [export-file]",
		Metadata:  map[string]any{"meta": meta},
		Flags: append(xs, []cli.Flag{
			&cli.StringFlag{
				Name:  "passphrase",
				Usage: "encrypted export passphrase",
			},
		}...),
		Action: xsCommandAction,
	}
}
