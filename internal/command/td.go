// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/meta"
	"github.com/pexctl/pexctl/internal/textdiff"
)

// tdCommandAction is the action handler for the "td" subcommand. It diffs two
// text files line by line and prints a gutter-annotated listing or, with
// --stats, just the change counts.
func tdCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if HandleTLDR(ctx, cmd, "td") {
		return nil
	}

	config.Config.Namespace = "td"

	files := cmd.Args().Slice()
	if len(files) != 2 {
		return fmt.Errorf("td wants exactly two files, got %d", len(files))
	}
	if files[0] == "-" && files[1] == "-" {
		return fmt.Errorf("only one side can read from stdin")
	}

	oldDoc, err := readTextArg(files[0])
	if err != nil {
		return err
	}

	newDoc, err := readTextArg(files[1])
	if err != nil {
		return err
	}

	changes := textdiff.LineDiff(string(oldDoc), string(newDoc))

	var added, removed int
	for _, c := range changes {
		switch c.Kind {
		case textdiff.Added:
			added++
		case textdiff.Removed:
			removed++
		}
	}

	if cmd.Bool("stats") {
		unchanged := len(changes) - added - removed
		fmt.Fprintf(os.Stdout, "%d added, %d removed, %d unchanged\n",
			added, removed, unchanged)
		return nil
	}

	// Identical inputs produce no listing, same as a classic diff.
	if added == 0 && removed == 0 {
		return nil
	}

	printLineChanges(os.Stdout, changes, cmd.Bool("color"))

	return nil
}

// readTextArg reads a positional file argument, with "-" standing in for
// stdin.
func readTextArg(path string) ([]byte, error) {
	if path == "-" {
		doc, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return doc, nil
	}

	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return doc, nil
}

// printLineChanges renders one gutter-annotated line per change.
func printLineChanges(w io.Writer, changes []textdiff.LineChange, colored bool) {
	removedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	addedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	for _, c := range changes {
		switch c.Kind {
		case textdiff.Removed:
			line := "- " + c.Text
			if colored {
				line = removedStyle.Render(line)
			}
			fmt.Fprintln(w, line)
		case textdiff.Added:
			line := "+ " + c.Text
			if colored {
				line = addedStyle.Render(line)
			}
			fmt.Fprintln(w, line)
		default:
			fmt.Fprintln(w, "  "+c.Text)
		}
	}
}

// tdCommandBuilder constructs the cli.Command for "td".
func tdCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "td",
		Usage:     "text diff two files",
		UsageText: "pexctl td FILE1 FILE2 [options] (use - to read one side from stdin)",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "colorize text output",
				Value:   false,
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print change counts only",
				Value: false,
			},
			tldrFlag,
		},
		Action: tdCommandAction,
	}
}
