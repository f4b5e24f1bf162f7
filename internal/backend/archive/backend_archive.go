// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package archive sources export versions from the local pexctl archive, an
// SQLite database the keep command appends to. It gives a workspace a
// queryable history that survives rotated or overwritten export files.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/differ"
	"github.com/pexctl/pexctl/internal/evutil"
	"github.com/pexctl/pexctl/internal/export"
)

type BackendArchive struct {
	Ctx     context.Context
	Cmd     *cli.Command
	RootDir string `json:"-" validate:"dir"`
	DB      *sql.DB
	Version int `json:"version" validate:"gte=1"`
	Source  struct {
		Type   string `json:"type" validate:"eq=archive"`
		Config struct {
			Path string `json:"path"`
		} `json:"config"`
		Hash int `json:"hash"`
	} `json:"source"`
}

func (be *BackendArchive) DiffExports(ctx context.Context, cmd *cli.Command) ([][]byte, error) {
	specs := []string{"EV~1", "EV~0"}

	switch diffArgs := differ.ParseDiffArgs(ctx, cmd); len(diffArgs) {
	case 2:
		specs = diffArgs
	case 1:
		if !strings.HasPrefix(diffArgs[0], "+") {
			specs[0] = diffArgs[0]
			break
		}

		kept, err := be.Versions()
		if err != nil {
			return nil, fmt.Errorf("failed to get export version list: %v", err)
		}

		picked := differ.SelectVersions(kept)
		log.Debugf("picked versions: %d", len(picked))

		if len(picked) == 0 {
			return nil, nil
		}
		if len(picked) == 2 {
			specs = []string{picked[1].ID, picked[0].ID}
		}
	}

	snapshots, err := be.Snapshots(specs[0], specs[1])
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}

	return snapshots, nil
}

// Path returns the archive database path following this precedence:
// 1. path from the workspace source config
// 2. archive.path entry from the pexctl config file
// 3. pexctl/archive.db under the user config dir.
func (be *BackendArchive) Path() string {
	if be.Source.Config.Path != "" {
		return be.Source.Config.Path
	}

	return DefaultPath()
}

// DefaultPath resolves the archive database location for callers with no
// source config, honoring the archive.path config entry.
func DefaultPath() string {
	if p, err := config.GetString("archive.path"); err == nil && p != "" {
		return p
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "pexctl", "archive.db")
}

func (be *BackendArchive) Snapshot() ([]byte, error) {
	ev := be.Cmd.String("ev")
	snapshots, err := be.Snapshots(ev)
	if err != nil {
		return nil, err
	}
	return snapshots[0], nil
}

// Versions implements backend.Backend. It lists the kept export versions,
// newest first. The augmenter is ignored; the archive is local and cheap to
// list.
func (be *BackendArchive) Versions(augmenter ...func(context.Context, *cli.Command, *export.ListOptions) error) ([]*export.Version, error) {
	db, err := be.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(be.Ctx,
		`SELECT id, version_number, created_at, file_size, record_count, description
		   FROM export_versions
		  ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive versions: %w", err)
	}
	defer rows.Close()

	var versions []*export.Version
	for rows.Next() {
		v := export.Version{Source: "archive"}
		if err := rows.Scan(&v.ID, &v.VersionNumber, &v.CreatedAt, &v.FileSize, &v.RecordCount, &v.Description); err != nil {
			return nil, fmt.Errorf("failed to scan archive version: %w", err)
		}
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive versions: %w", err)
	}

	limit := be.Cmd.Int("limit")
	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}

	return versions, nil
}

func (be *BackendArchive) Snapshots(specs ...string) ([][]byte, error) {
	var results [][]byte

	candidates, err := be.Versions()
	if err != nil {
		return nil, err
	}
	versions, err := evutil.Resolve(candidates, specs...)
	if err != nil {
		return nil, err
	}
	log.Debugf("versions: %v", versions)

	db, err := be.db()
	if err != nil {
		return nil, err
	}

	// Now pound through the found versions and return each of their bodies.
	for _, v := range versions {
		var payload []byte
		row := db.QueryRowContext(be.Ctx,
			`SELECT payload FROM export_versions WHERE id = ?`, v.ID)
		if err := row.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to read archived export: %w", err)
		}
		results = append(results, payload)
	}

	return results, nil
}

func (be *BackendArchive) String() string {
	return be.Path()
}

func (be *BackendArchive) Type() (string, error) {
	return be.Source.Type, nil
}

// db returns the open archive handle, opening it from the configured path on
// first use.
func (be *BackendArchive) db() (*sql.DB, error) {
	if be.DB != nil {
		return be.DB, nil
	}

	db, err := Open(be.Path())
	if err != nil {
		return nil, err
	}
	be.DB = db
	return be.DB, nil
}
