// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/export"
	"github.com/pexctl/pexctl/internal/filters"
	"github.com/pexctl/pexctl/internal/meta"
)

// vqDefaultAttrs specifies the default attributes displayed for export
// versions in the "vq" command output.
var vqDefaultAttrs = []string{
	".id", "version-number", "created-at", "record-count", "source",
}

// vqCommandAction is the action handler for the "vq" subcommand. It lists
// export versions via the active source, supports --tldr/--schema shortcuts,
// and emits results per common flags.
func vqCommandAction(ctx context.Context, cmd *cli.Command) error {
	be, err := InitSourceQuery(ctx, cmd)
	if err != nil {
		return err
	}

	runner := &QueryActionRunner[*export.Version]{
		CommandName:  "vq",
		SchemaType:   reflect.TypeOf(export.Version{}),
		DefaultAttrs: vqDefaultAttrs,
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*export.Version, error) {
			return be.Versions(VqServerSideSearchAugmenter)
		},
	}

	return runner.Run(ctx, cmd)
}

// VqServerSideSearchAugmenter lifts server-side filters out of --filter and
// into the export.ListOptions. A "search" filter trims the listing before
// pagination instead of after download; everything else stays for the local
// filtering pass.
var VqServerSideSearchAugmenter Augmenter[export.ListOptions] = func(
	_ context.Context,
	cmd *cli.Command,
	opts *export.ListOptions,
) error {
	for _, filter := range filters.BuildFilters(cmd.String("filter")) {
		if filter.ServerSide && filter.Key == "search" {
			opts.Search = filter.Value
		}
	}

	log.Debugf("opts after augmentation: %+v", opts)
	return nil
}

// vqCommandBuilder constructs the cli.Command for "vq", wiring metadata,
// flags, and action handlers.
func vqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "vq",
		Usage:     "export version query",
		UsageText: "pexctl vq [RootDir] [options]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "limit export versions returned",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("vq.limit", altsrc.StringSourcer(meta.Config.Source)),
					yaml.YAML("limit", altsrc.StringSourcer(meta.Config.Source)),
				),
				Value: 99999,
			},
			NewHostFlag("vq", meta.Config.Source),
			NewOrgFlag("vq", meta.Config.Source),
			labelFlag,
		},
		Action: vqCommandAction,
		Meta:   meta,
	}).Build()
}
