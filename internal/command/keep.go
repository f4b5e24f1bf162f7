// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/backend"
	"github.com/pexctl/pexctl/internal/backend/archive"
	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/evutil"
	"github.com/pexctl/pexctl/internal/export"
	"github.com/pexctl/pexctl/internal/meta"
)

// keepCommandAction is the action handler for the "keep" subcommand. It
// fetches one export version from the active source and inserts it into the
// local archive database. The payload is stored exactly as fetched, so an
// encrypted export stays encrypted at rest.
func keepCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if HandleTLDR(ctx, cmd, "keep") {
		return nil
	}

	if HandleSchema(cmd, reflect.TypeOf(export.Version{})) {
		return nil
	}

	config.Config.Namespace = "keep"

	// Figure out what type of source we're reading from.
	be, err := backend.NewBackend(ctx, *cmd)
	if err != nil {
		return err
	}
	log.Debugf("typBe: %v", be)

	ev := cmd.String("ev")

	versions, err := be.Versions()
	if err != nil {
		return err
	}

	resolved, err := evutil.Resolve(versions, ev)
	if err != nil {
		return err
	}
	v := resolved[0]

	snapshots, err := be.Snapshots(ev)
	if err != nil {
		return err
	}
	doc := snapshots[0]

	// Backfill metadata the source didn't provide so the archive row is
	// complete enough to list later.
	if v.FileSize == 0 {
		v.FileSize = int64(len(doc))
	}
	if v.RecordCount == 0 {
		if plain, gzErr := export.MaybeGunzip(doc); gzErr == nil && !export.IsEncrypted(plain) {
			v.RecordCount = int(gjson.GetBytes(plain, "prompts.#").Int())
		}
	}
	if d := cmd.String("description"); d != "" {
		v.Description = d
	}

	db, err := archive.Open(archive.DefaultPath())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := archive.Put(db, v, doc); err != nil {
		if errors.Is(err, archive.ErrAlreadyKept) {
			fmt.Fprintf(os.Stdout, "Version %s is already kept.\n", v.ID)
			return nil
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "Kept version %d (%s).\n", v.VersionNumber, v.ID)

	return nil
}

// keepCommandBuilder constructs the cli.Command for "keep", wiring metadata,
// flags, and action handlers.
func keepCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "keep",
		Usage:     "keep an export version in the local archive",
		UsageText: "pexctl keep [RootDir] [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"m"},
				Usage:   "description to store with the kept version",
			},
			&cli.StringFlag{
				Name:        "ev",
				Usage:       "export version to keep",
				Value:       "0",
				HideDefault: true,
			},
			&cli.IntFlag{
				Name:   "limit",
				Hidden: true,
				Usage:  "limit export versions listed",
				Value:  99999,
			},
			// We don't want keep to get default host and org values from the config.
			// Instead, we'll depend on the source or, in exceptional cases, explicit
			// --host and --org flags.
			NewHostFlag("keep"),
			NewOrgFlag("keep"),
			labelFlag,
		},
		Action: keepCommandAction,
		Meta:   meta,
	}).Build()
}
