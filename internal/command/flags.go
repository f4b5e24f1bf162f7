// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

// Flags shared by the command builders. labelFlag picks the export label a
// query runs against, overriding whatever the recorded source names.
var (
	labelFlag = &cli.StringFlag{
		Name:    "label",
		Aliases: []string{"w"},
		Usage:   "export label to query. Overrides the recorded source",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("PEXCTL_LABEL"),
		),
		Value: "",
	}

	schemaFlag = &cli.BoolFlag{
		Name:        "schema",
		Usage:       "print the column schema",
		HideDefault: true,
	}

	tldrFlag = &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show the tldr page",
		Hidden:      !onPath("tldr"),
		HideDefault: true,
	}
)

// NewGlobalFlags returns the output-shaping flags every query command takes.
func NewGlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "attributes to include in results, comma-separated",
		},
		&cli.BoolFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "colorize text output",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "filters to apply to results, comma-separated",
		},
		&cli.BoolFlag{
			Name:    "local",
			Aliases: []string{"l"},
			Usage:   "render timestamps in local time",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, raw or yaml)",
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "attributes to sort the results by, comma-separated",
		},
		&cli.BoolFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "include column titles in text output",
			Value:   false,
		},
	}
}

// NewHostFlag builds the host flag for the command named by params[0]. When
// params[1] supplies a config file it joins the value chain too. Snapshot
// commands leave it out so the host always comes from the recorded source or
// an explicit flag.
func NewHostFlag(params ...string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:    "host",
		Aliases: []string{"h"},
		Usage:   "service host for all commands. Overrides the recorded source",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("PEXCTL_HOST"),
			cli.EnvVar("PROMPTEX_HOST"),
		),
		Value: "app.promptex.io",
	}

	if len(params) < 2 {
		return flag
	}

	return chainConfigSources(params[0], params[1], flag)
}

// NewOrgFlag builds the organization flag the same way NewHostFlag does,
// minus a default value.
func NewOrgFlag(params ...string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:  "org",
		Usage: "organization for all commands. Overrides the recorded source",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("PEXCTL_ORG"),
			cli.EnvVar("PROMPTEX_ORGANIZATION"),
		),
	}

	// Only commands that query the service directly, vq among them, read the
	// config file. Snapshot commands infer the organization from
	// .pexctl/source.json instead.
	if len(params) < 2 {
		return flag
	}

	return chainConfigSources(params[0], params[1], flag)
}

// chainConfigSources appends two YAML sources to the flag's value chain, the
// ns-qualified key ahead of the bare one so it wins.
func chainConfigSources(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	flag.Sources.Chain = append(flag.Sources.Chain,
		yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path)),
		yaml.YAML(flag.Name, altsrc.StringSourcer(path)),
	)

	return flag
}

// onPath reports whether bin resolves on the user's PATH.
func onPath(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}
