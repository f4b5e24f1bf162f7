// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
)

// QueryActionRunner runs the shared action flow for listing-style commands:
// resolve meta, honor the --tldr and --schema short-circuits, assemble the
// attr list, fetch rows through FetchFn, and emit them through the jsonapi
// output pipeline.
type QueryActionRunner[T any] struct {
	// CommandName keys the tldr lookup.
	CommandName string
	// SchemaType is the row type dumped by --schema.
	SchemaType reflect.Type
	// DefaultAttrs shape the output when --attrs is not given.
	DefaultAttrs []string
	// FetchFn produces the rows. Everything around it is shared.
	FetchFn func(context.Context, *cli.Command) ([]T, error)
}

// Run executes the flow for one command invocation.
func (qar *QueryActionRunner[T]) Run(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("%s invoked: %v", qar.CommandName, m.Args[1:])

	if HandleTLDR(ctx, cmd, qar.CommandName) {
		return nil
	}
	if HandleSchema(cmd, qar.SchemaType) {
		return nil
	}

	attrs := BuildAttrs(cmd, qar.DefaultAttrs...)
	log.Debugf("emitting attrs: %v", attrs)

	results, err := qar.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}

	return EmitJSONAPISlice(results, attrs, cmd)
}
