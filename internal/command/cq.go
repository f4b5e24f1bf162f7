// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/backend"
	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/differ"
	"github.com/pexctl/pexctl/internal/export"
	"github.com/pexctl/pexctl/internal/loader"
	"github.com/pexctl/pexctl/internal/meta"
	"github.com/pexctl/pexctl/internal/reconcile"
)

// cqDefaultAttrs specifies the default attributes displayed for record diffs
// in the "cq" command output.
var cqDefaultAttrs = []string{
	".id", "name", "status", "fields", "lines-added", "lines-removed",
}

// cqCommandAction is the action handler for the "cq" subcommand. It resolves
// two export versions from the active source, reconciles their records, and
// emits one row per changed record plus a summary. With --raw it prints the
// document-level delta instead.
func cqCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if HandleTLDR(ctx, cmd, "cq") {
		return nil
	}

	if HandleSchema(cmd, reflect.TypeOf(reconcile.Row{})) {
		return nil
	}

	config.Config.Namespace = "cq"

	// Figure out what type of source we're reading from.
	be, err := backend.NewBackend(ctx, *cmd)
	if err != nil {
		return err
	}
	log.Debugf("typBe: %v", be)

	sd, ok := be.(backend.SelfDiffer)
	if !ok {
		return fmt.Errorf("source %s cannot compare export versions", be)
	}

	exports, err := sd.DiffExports(ctx, cmd)
	if err != nil {
		log.Errorf("diff error: %v", err)
		return err
	}

	// A nil result without error means the version picker was dismissed.
	if exports == nil {
		return nil
	}

	var passphrase string
	for i := range exports {
		doc, gzErr := export.MaybeGunzip(exports[i])
		if gzErr != nil {
			return gzErr
		}

		// If the export is encrypted, there's a little more work to do. The
		// passphrase is resolved once and reused for both sides.
		if export.IsEncrypted(doc) {
			if passphrase == "" {
				passphrase = cmd.String("passphrase")
			}
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

		exports[i] = doc
	}

	// Raw mode hands the documents to the generic JSON differ and skips
	// record reconciliation entirely.
	if cmd.Bool("raw") {
		return differ.Diff(ctx, cmd, exports)
	}

	oldSnap, err := export.Parse(exports[0])
	if err != nil {
		return fmt.Errorf("failed to parse old export: %w", err)
	}

	newSnap, err := export.Parse(exports[1])
	if err != nil {
		return fmt.Errorf("failed to parse new export: %w", err)
	}

	report := reconcile.Reconcile(oldSnap, newSnap)

	if report.Summary.Modified+report.Summary.Added+report.Summary.Removed == 0 {
		fmt.Println("The exports are identical.")
		return nil
	}

	attrs := BuildAttrs(cmd, cqDefaultAttrs...)
	log.Debugf("attrs: %v", attrs)

	cmd.Metadata["header"] = fmt.Sprintf("\nComparing version %d -> version %d:",
		export.VersionNumber(exports[0]), export.VersionNumber(exports[1]))
	cmd.Metadata["footer"] = "\n" + report.Summary.String()

	return EmitJSONAPISlice(report.Rows(), attrs, cmd)
}

// cqCommandBuilder constructs the cli.Command for "cq", wiring metadata,
// flags, and action handlers.
func cqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "cq",
		Usage:     "compare export versions",
		UsageText: "pexctl cq [RootDir] [--diff [SpecA[,SpecB]]] [options]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "diff",
				Usage: "select the export versions to compare",
				Value: false,
			},
			chainConfigSources("cq", meta.Config.Source, &cli.StringFlag{
				Name:   "diff_filter",
				Hidden: true,
				Value:  "exported_at",
			}),
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
				Name:  "raw",
				Usage: "show the raw document delta",
				Value: false,
			},
			// We don't want cq to get default host and org values from the config.
			// Instead, we'll depend on the source or, in exceptional cases, explicit
			// --host and --org flags.
			NewHostFlag("cq"),
			NewOrgFlag("cq"),
			labelFlag,
		},
		Action: cqCommandAction,
		Meta:   meta,
	}).Build()
}
