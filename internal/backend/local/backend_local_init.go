// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/util"
)

// Option mutates a BackendLocal under construction. Ctx, Cmd and the
// defaults are all in place before the first option runs.
type Option func(be *BackendLocal) error

// NewBackendLocal builds a local source rooted at the current directory and
// applies the options in order.
func NewBackendLocal(ctx context.Context, cmd *cli.Command, options ...Option) (*BackendLocal, error) {
	be := &BackendLocal{Ctx: ctx, Cmd: cmd}
	be.RootDir, _ = os.Getwd()
	be.Version = 1
	be.Source.Type = "local"

	for _, opt := range options {
		if err := opt(be); err != nil {
			return nil, err
		}
	}

	return be, nil
}

// FromRootDir points the source at rootDir and reads its config file. A
// local source stays usable without one, so only a malformed or foreign
// config errors here.
func FromRootDir(rootDir string) Option {
	return func(be *BackendLocal) error {
		be.RootDir = util.AbsDir(rootDir)
		return be.load()
	}
}

// WithLabelOverride pins the export label, beating any .pexctl/label file.
func WithLabelOverride(label string) Option {
	return func(be *BackendLocal) error {
		if label != "" {
			be.LabelOverride = label
		}
		return nil
	}
}

// WithNoSource synthesizes the config for a directory holding a bare export
// document and no .pexctl at all.
func WithNoSource(rootDir string) Option {
	return func(be *BackendLocal) error {
		be.RootDir = util.AbsDir(rootDir)
		be.Source.Config.Path = "prompts.export.json"
		return nil
	}
}

// load pulls the workspace source config into the struct.
func (be *BackendLocal) load() error {
	cfgFile := filepath.Join(be.RootDir, ".pexctl", "source.json")

	data, err := os.ReadFile(cfgFile)
	if errors.Is(err, os.ErrNotExist) {
		// A bare export directory. Perfectly fine, the defaults carry it.
		log.Debugf("no source config at %s, assuming a bare local source", cfgFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read source config: %w", err)
	}

	var cfg BackendLocal
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse source config: %w", err)
	}
	if cfg.Source.Type != "local" {
		return fmt.Errorf("source config names a %s source, not local", cfg.Source.Type)
	}

	be.Version = cfg.Version
	be.Source = cfg.Source

	return nil
}
