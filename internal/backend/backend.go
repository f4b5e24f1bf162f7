// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/backend/api"
	"github.com/pexctl/pexctl/internal/backend/archive"
	"github.com/pexctl/pexctl/internal/backend/local"
	"github.com/pexctl/pexctl/internal/backend/s3"
	"github.com/pexctl/pexctl/internal/export"
	"github.com/pexctl/pexctl/internal/meta"
)

// Backend abstracts the export sources the application can read versions and
// snapshots from.
type Backend interface {
	// Snapshot() returns the EV~0 export payload.
	Snapshot() ([]byte, error)
	// Snapshots() returns the export payloads specified by the specs.
	Snapshots(...string) ([][]byte, error)
	// Versions accepts an optional augmenter function to apply server-side
	// list options. Only the api backend uses this; local, s3 and archive
	// ignore it.
	Versions(augmenter ...func(context.Context, *cli.Command, *export.ListOptions) error) ([]*export.Version, error)
	String() string
	Type() (string, error)
}

// SelfDiffer is implemented by backends that can resolve a pair of diff specs
// to snapshot payloads without an external differ.
type SelfDiffer interface {
	DiffExports(ctx context.Context, cmd *cli.Command) ([][]byte, error)
}

// NewBackend sniffs the workspace under the resolved root dir and builds the
// source implementation it calls for.
func NewBackend(ctx context.Context, cmd cli.Command) (Backend, error) {
	meta := cmd.Metadata["meta"].(meta.Meta)
	log.Debugf("resolving source in %s", meta.RootDir)

	_, cfgErr := os.Stat(filepath.Join(meta.RootDir, ".pexctl", "source.json"))
	_, exportErr := os.Stat(filepath.Join(meta.RootDir, "prompts.export.json"))
	_, labelErr := os.Stat(filepath.Join(meta.RootDir, ".pexctl", "label"))

	// No workspace markers at all. Commands that only talk to the service
	// still need a source, so hand back an api source fed purely by flags
	// and environment.
	if cfgErr != nil && exportErr != nil && labelErr != nil {
		return api.NewBackendAPI(ctx, &cmd, api.BuckNaked())
	}

	// An export sitting in a directory with no .pexctl tree is a bare
	// local source rooted right here.
	if cfgErr != nil && exportErr == nil {
		return local.NewBackendLocal(ctx, &cmd,
			local.WithNoSource(meta.RootDir),
			local.WithLabelOverride(meta.Label),
		)
	}

	// A label file without source.json or a root export marks the
	// multi-label layout. The label picks the exports.d subdirectory in
	// play.
	if cfgErr != nil && exportErr != nil && labelErr == nil {
		return local.NewBackendLocal(ctx, &cmd,
			local.FromRootDir(meta.RootDir),
			local.WithLabelOverride(meta.Label),
		)
	}

	// TODO peek reads source.json here and the constructor reads it again.
	// Thread the parsed document through instead.
	typ, err := peek(meta)
	if err != nil {
		return nil, err
	}

	var result Backend
	switch typ {
	case "api":
		result, err = api.NewBackendAPI(ctx, &cmd,
			api.FromRootDir(meta.RootDir),
		)
	case "archive":
		result, err = archive.NewBackendArchive(ctx, &cmd,
			archive.FromRootDir(meta.RootDir),
		)
	case "local":
		result, err = local.NewBackendLocal(ctx, &cmd,
			local.FromRootDir(meta.RootDir),
			local.WithLabelOverride(meta.Label),
		)
	case "s3":
		result, err = s3.NewBackendS3(ctx, &cmd,
			s3.FromRootDir(meta.RootDir),
			s3.WithLabelOverride(meta.Label),
		)
	default:
		return nil, fmt.Errorf("unknown source type: %s", typ)
	}

	return result, err
}

// peek lifts just the source type out of .pexctl/source.json, enough to pick
// which constructor gets the file.
func peek(meta meta.Meta) (string, error) {
	raw, err := os.ReadFile(filepath.Join(meta.RootDir, ".pexctl", "source.json"))
	if err != nil {
		return "", err
	}

	var peeked struct {
		Source struct {
			Type string `json:"type"`
		} `json:"source"`
	}
	if err := json.Unmarshal(raw, &peeked); err != nil {
		return "", fmt.Errorf("malformed source.json: %w", err)
	}
	if peeked.Source.Type == "" {
		return "", fmt.Errorf("source.json in %s names no type", meta.RootDir)
	}

	log.Debugf("peeked source type %s", peeked.Source.Type)
	return peeked.Source.Type, nil
}
