// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"reflect"

	"github.com/apex/log"
	"github.com/hashicorp/jsonapi"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/attrs"
	"github.com/pexctl/pexctl/internal/backend"
	"github.com/pexctl/pexctl/internal/meta"
	"github.com/pexctl/pexctl/internal/output"
)

// BuildAttrs seeds an AttrList with the command defaults, layers on --attrs,
// and finishes with the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) attrs.AttrList {
	var al attrs.AttrList
	for _, d := range defaults {
		_ = al.Set(d)
	}
	if extras := cmd.String("attrs"); extras != "" {
		_ = al.Set(extras)
	}
	_ = al.SetGlobalTransformSpec()

	return al
}

// HandleSchema handles --schema by printing the attr schema for t. A true
// return tells the caller the command is done.
func HandleSchema(cmd *cli.Command, t reflect.Type) bool {
	if !cmd.Bool("schema") {
		return false
	}

	output.DumpSchema("", t, nil)

	return true
}

// EmitJSONAPISlice marshals results as JSONAPI and hands the document to the
// output pipeline.
func EmitJSONAPISlice(results any, al attrs.AttrList, cmd *cli.Command) error {
	var raw bytes.Buffer
	if err := jsonapi.MarshalPayload(&raw, results); err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	output.SliceDiceSpit(raw, al, cmd, "data", os.Stdout, nil)

	return nil
}

// GetMeta digs the meta.Meta out of the command's Metadata, zero value when
// absent or of the wrong type.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}

	m, _ := cmd.Metadata["meta"].(meta.Meta)

	return m
}

// InitSourceQuery resolves the Backend implementation for the working
// directory carried in command metadata.
func InitSourceQuery(ctx context.Context, cmd *cli.Command) (
	backend.Backend,
	error,
) {
	be, err := backend.NewBackend(ctx, *cmd)
	if err != nil {
		return nil, err
	}
	log.Debugf("source backend: %v", be)

	return be, nil
}

// HandleTLDR handles --tldr by running `tldr pexctl <subcmd>` when the tldr
// client is installed. True means the caller should stop either way.
func HandleTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if !cmd.Bool("tldr") {
		return false
	}

	if _, err := exec.LookPath("tldr"); err == nil {
		c := exec.CommandContext(ctx, "tldr", "pexctl", subcmd)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		_ = c.Run()
	}

	return true
}
