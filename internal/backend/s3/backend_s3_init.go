// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/util"
)

// Option mutates a BackendS3 under construction. Ctx, Cmd and the defaults
// are all in place before the first option runs.
type Option func(be *BackendS3) error

// NewBackendS3 builds an s3 source and applies the options in order. The
// bucket and key come out of the workspace config, so FromRootDir is all but
// mandatory.
func NewBackendS3(ctx context.Context, cmd *cli.Command, options ...Option) (*BackendS3, error) {
	be := &BackendS3{Ctx: ctx, Cmd: cmd}
	be.RootDir, _ = os.Getwd()
	be.Version = 1
	be.Source.Type = "s3"

	for _, opt := range options {
		if err := opt(be); err != nil {
			return nil, err
		}
	}

	return be, nil
}

// FromRootDir points the source at rootDir and reads its config file. Unlike
// a local source an s3 one cannot run without a config; nothing else names
// the bucket.
func FromRootDir(rootDir string) Option {
	return func(be *BackendS3) error {
		be.RootDir = util.AbsDir(rootDir)
		log.Debugf("s3 source root: %s", be.RootDir)

		return be.load()
	}
}

// WithLabelOverride pins the export label, beating any .pexctl/label file.
func WithLabelOverride(label string) Option {
	return func(be *BackendS3) error {
		if label != "" {
			be.LabelOverride = label
		}
		return nil
	}
}

func (be *BackendS3) load() error {
	data, err := os.ReadFile(filepath.Join(be.RootDir, ".pexctl", "source.json"))
	if err != nil {
		return fmt.Errorf("failed to read source config: %w", err)
	}

	var cfg BackendS3
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse source config: %w", err)
	}
	if cfg.Source.Type != "s3" {
		return fmt.Errorf("source config names a %s source, not s3", cfg.Source.Type)
	}

	be.Version = cfg.Version
	be.Source = cfg.Source

	return nil
}
