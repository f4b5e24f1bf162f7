// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/pexctl/pexctl/internal/meta"
)

// Diff renders the difference between two export payloads to stdout as a
// colorized document diff. Identical payloads get a one-line notice instead.
func Diff(ctx context.Context, cmd *cli.Command, exports [][]byte) error {
	if len(exports[0]) == 0 || len(exports[1]) == 0 {
		return nil
	}

	log.Debugf("diffing %d against %d bytes", len(exports[0]), len(exports[1]))

	delta, err := gojsondiff.New().Compare(exports[0], exports[1])
	if err != nil {
		return fmt.Errorf("failed to compare exports: %w", err)
	}

	if !delta.Modified() {
		fmt.Fprintln(os.Stdout, "The exports are identical.")
		return nil
	}

	// The formatter wants the left document for its context lines.
	var left map[string]interface{}
	if err := json.Unmarshal(exports[0], &left); err != nil {
		return fmt.Errorf("failed to unmarshal export: %w", err)
	}

	// --diff_filter names top-level keys to keep out of the rendering.
	for key := range strings.SplitSeq(cmd.String("diff_filter"), ",") {
		if key != "" {
			delete(left, key)
		}
	}

	out, err := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		Coloring: true,
	}).Format(delta)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, out)

	return nil
}

// ParseDiffArgs collects the version specs trailing a --diff flag in the raw
// argument list, at most two. Collection stops at the first flag token,
// where a negative number counts as a spec rather than a flag.
func ParseDiffArgs(ctx context.Context, cmd *cli.Command) (args []string) {
	m := cmd.Metadata["meta"].(meta.Meta)

	collecting := false
	for _, a := range m.Args {
		switch {
		case a == "--diff":
			collecting = true
		case !collecting:
		case len(args) == 2:
			return args
		case strings.HasPrefix(a, "-") && !isInt(a):
			return args
		default:
			// Both specs may arrive as one comma-joined token.
			for part := range strings.SplitSeq(a, ",") {
				if part != "" && len(args) < 2 {
					args = append(args, part)
				}
			}
		}
	}

	return args
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
