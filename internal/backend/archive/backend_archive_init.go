// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/util"
)

// Option mutates a BackendArchive under construction. Ctx, Cmd and the
// defaults are all in place before the first option runs.
type Option func(be *BackendArchive) error

// NewBackendArchive builds an archive source and applies the options in
// order. The database is not opened until the first query needs it.
func NewBackendArchive(ctx context.Context, cmd *cli.Command, options ...Option) (*BackendArchive, error) {
	be := &BackendArchive{Ctx: ctx, Cmd: cmd}
	be.RootDir, _ = os.Getwd()
	be.Version = 1
	be.Source.Type = "archive"

	for _, opt := range options {
		if err := opt(be); err != nil {
			return nil, err
		}
	}

	return be, nil
}

// FromRootDir points the source at rootDir and reads its config file.
func FromRootDir(rootDir string) Option {
	return func(be *BackendArchive) error {
		be.RootDir = util.AbsDir(rootDir)
		return be.load()
	}
}

// WithDB injects an already open database handle in place of the configured
// path. Tests use it to swap in a mock.
func WithDB(db *sql.DB) Option {
	return func(be *BackendArchive) error {
		be.DB = db
		return nil
	}
}

func (be *BackendArchive) load() error {
	data, err := os.ReadFile(filepath.Join(be.RootDir, ".pexctl", "source.json"))
	if err != nil {
		return fmt.Errorf("failed to read source config: %w", err)
	}

	var cfg BackendArchive
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse source config: %w", err)
	}
	if cfg.Source.Type != "archive" {
		return fmt.Errorf("source config names a %s source, not archive", cfg.Source.Type)
	}

	be.Version = cfg.Version
	be.Source = cfg.Source

	return nil
}
