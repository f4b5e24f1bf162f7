// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/meta"
	"github.com/pexctl/pexctl/internal/util"
)

// namespaceFor returns the subcommand sitting ahead of the flags, which
// doubles as the config namespace. A help flag in that slot means none.
func namespaceFor(args []string) string {
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		return args[1]
	}

	return ""
}

// takesRootDir says whether the subcommand's first positional is a RootDir.
// completion takes a shell name and td/xs take export files instead.
func takesRootDir(ns string) bool {
	switch ns {
	case "completion", "td", "xs":
		return false
	}

	return true
}

func InitApp(args []string) (*cli.Command, error) {
	// Park the CWD and restore it on the way out.
	sd, _ := os.Getwd()
	defer func() {
		if err := os.Chdir(sd); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to restore directory: %v\n", err)
		}
	}()

	ns := namespaceFor(args)

	cfg, _ := config.Load()
	m := meta.Meta{
		Args:        args,
		Config:      cfg,
		StartingDir: sd,
		RootDir:     sd,
	}

	// A non-flag token after the subcommand is a RootDir spec for the
	// commands that take one.
	if takesRootDir(ns) && len(args) > 2 && !strings.HasPrefix(args[2], "-") {
		wd, label, err := util.ParseRootDir(args[2])
		if err != nil {
			return nil, fmt.Errorf("failed to parse rootDir (%s): %w", args[2], err)
		}
		m.RootDir = wd
		m.Label = label
	}

	app := &cli.Command{
		Name:  "pexctl",
		Usage: "Promptex Control",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "pexctl version info",
				HideDefault: true,
			},
		},
		Commands: []*cli.Command{
			cqCommandBuilder(m),
			keepCommandBuilder(m),
			piCommandBuilder(m),
			pqCommandBuilder(m),
			tdCommandBuilder(m),
			vqCommandBuilder(m),
			xsCommandBuilder(m),
			completionCommandBuilder(m),
		},
	}

	// Sorted flags read better in --help.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
