// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pexctl/pexctl/internal/cacheutil"
	"github.com/pexctl/pexctl/internal/command"
	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/log"
	"github.com/pexctl/pexctl/internal/util"
	"github.com/pexctl/pexctl/internal/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	log.InitLogger()

	args := os.Args
	log.Debugf("raw args: args=%v", args)

	if hasFlag(args, "--version", "-v") {
		fmt.Println(version.Version)
		return 0
	}

	if len(args) <= 1 {
		args = append(args, "--help")
	}

	// Help requests skip the arg surgery below. The CLI renders them itself.
	if !hasFlag(args, "--help", "-h") {
		args = prepareArgs(args)
	}

	return runApp(args)
}

// prepareArgs expands @sets, collapses repeated flags and fills the first
// positional slot the way each command expects it.
func prepareArgs(args []string) []string {
	if len(args) < 2 {
		return args
	}

	cmd := args[1]
	if cmd == "completion" {
		return args
	}

	args = deduplicateFlags(expandArgSet(args))
	log.Debugf("args after set expansion: args=%v", args)

	switch cmd {
	case "td":
		// Two file positionals, no RootDir slot to fill.
		return args
	case "xs":
		return defaultToStdin(args)
	default:
		return injectRootDir(args)
	}
}

// expandArgSet replaces the first @name token with the arguments stored under
// <command>.<name> in the config file.
func expandArgSet(args []string) []string {
	for i := 2; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "@") {
			continue
		}

		name := strings.TrimPrefix(args[i], "@")
		args = append(args[:i], args[i+1:]...)

		stored, _ := config.GetStringSlice(args[1] + "." + name)

		return spliceFields(args, stored, i)
	}

	return args
}

// spliceFields splits each entry on whitespace and inserts the fields at
// position at, pushing the tail right.
func spliceFields(args []string, entries []string, at int) []string {
	for _, entry := range entries {
		fields := strings.Fields(entry)
		args = append(args[:at], append(fields, args[at:]...)...)
		at += len(fields)
	}

	return args
}

// deduplicateFlags keeps only the last occurrence of a repeated flag. A flag
// and its space-separated value travel together, a --flag=value token is one
// unit and positionals pass through untouched. Only args after the
// subcommand are considered.
func deduplicateFlags(args []string) []string {
	if len(args) <= 2 {
		return args
	}

	type argGroup struct {
		flag   string // Name up to "=", empty for positionals.
		tokens []string
	}

	var groups []argGroup
	for i := 2; i < len(args); i++ {
		tok := args[i]
		if !strings.HasPrefix(tok, "-") {
			groups = append(groups, argGroup{tokens: []string{tok}})
			continue
		}

		g := argGroup{flag: tok, tokens: []string{tok}}
		if eq := strings.Index(tok, "="); eq >= 0 {
			g.flag = tok[:eq]
		} else if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			// The next token rides along as this flag's value.
			g.tokens = append(g.tokens, args[i+1])
			i++
		}
		groups = append(groups, g)
	}

	lastSeen := make(map[string]int)
	for i, g := range groups {
		if g.flag != "" {
			lastSeen[g.flag] = i
		}
	}

	kept := append(make([]string, 0, len(args)), args[:2]...)
	for i, g := range groups {
		if g.flag == "" || lastSeen[g.flag] == i {
			kept = append(kept, g.tokens...)
		}
	}

	return kept
}

// defaultToStdin inserts "-" after the subcommand when no readable file was
// named, so the export payload comes from stdin.
func defaultToStdin(args []string) []string {
	if len(args) > 2 && (args[2] == "-" || fileExists(args[2])) {
		return args
	}

	return append(args[:2], append([]string{"-"}, args[2:]...)...)
}

// injectRootDir fills the first positional slot with a RootDir so downstream
// parsing can count on one. An explicit valid RootDir wins over the cwd.
func injectRootDir(args []string) []string {
	rootDir, _ := os.Getwd()
	if len(args) > 2 {
		if _, _, err := util.ParseRootDir(args[2]); err == nil {
			rootDir = args[2]
		}
	}

	switch {
	case len(args) == 2:
		return append(args, rootDir)
	case args[2] == rootDir:
		return args
	default:
		return append(args[:2], append([]string{rootDir}, args[2:]...)...)
	}
}

// runApp spins up the CLI and maps failures to exit codes, 2 for a broken
// init and 1 for a command error.
func runApp(args []string) int {
	ctx := context.Background()

	// Create the cache base dir up front. Failures only warn.
	if _, _, err := cacheutil.EnsureBaseDir(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("cache dir err: err=%v", err)
	}

	app, err := command.InitApp(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("init failed: err=%v", err)
		return 2
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("run failed: err=%v", err)
		return 1
	}

	return 0
}

func hasFlag(args []string, names ...string) bool {
	for _, a := range args {
		for _, n := range names {
			if a == n {
				return true
			}
		}
	}

	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
