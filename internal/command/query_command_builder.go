// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/meta"
)

// QueryCommandBuilder assembles the cli.Command for one query verb. Every
// query command carries the same tail of shared flags, the same metadata
// plumbing, and the same global flag validation. The builder keeps that
// wiring in one place so the per-verb files only declare what is unique
// to them: name, usage, flags, and the action.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Before    func(context.Context, *cli.Command) error
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build assembles the command. Verb flags come first so help output leads
// with what is specific to the verb, then the shared tldr and schema
// toggles, then the global flag set.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{}, qcb.Flags...)
	flags = append(flags, tldrFlag, schemaFlag)
	flags = append(flags, NewGlobalFlags()...)

	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata:  map[string]any{"meta": qcb.Meta},
		Flags:     flags,
		Before:    qcb.before,
		Action:    qcb.Action,
	}
}

// before runs the verb's own hook, when it has one, ahead of the shared
// global flag validation.
func (qcb *QueryCommandBuilder) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if qcb.Before != nil {
		if err := qcb.Before(ctx, cmd); err != nil {
			return ctx, err
		}
	}

	return ctx, GlobalFlagsValidator(ctx, cmd)
}
