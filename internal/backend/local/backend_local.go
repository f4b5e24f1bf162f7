// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/differ"
	"github.com/pexctl/pexctl/internal/evutil"
	"github.com/pexctl/pexctl/internal/export"
)

// BackendLocal is a struct that represents a local source configuration: the
// export document and its rotated siblings sitting on the filesystem.
type BackendLocal struct {
	Ctx           context.Context
	Cmd           *cli.Command
	RootDir       string `json:"-" validate:"dir"`
	LabelOverride string
	Version       int `json:"version" validate:"gte=1"`
	Source        struct {
		Type   string `json:"type" validate:"eq=local"`
		Config struct {
			Path       string `json:"path"`
			ExportsDir string `json:"exports_dir"`
		} `json:"config"`
		Hash int `json:"hash"`
	} `json:"source"`
}

func (be *BackendLocal) DiffExports(ctx context.Context, cmd *cli.Command) ([][]byte, error) {
	specs, err := be.diffSpecs(ctx, cmd)
	if err != nil || specs == nil {
		return nil, err
	}

	snapshots, _ := be.Snapshots(specs...)

	return snapshots, nil
}

// diffSpecs turns the --diff arguments into the pair of version specs to
// compare. A nil pair with a nil error means the interactive picker came back
// empty and there is nothing to diff.
func (be *BackendLocal) diffSpecs(ctx context.Context, cmd *cli.Command) ([]string, error) {
	diffArgs := differ.ParseDiffArgs(ctx, cmd)

	if len(diffArgs) == 2 {
		return diffArgs, nil
	}

	if len(diffArgs) == 1 && !strings.HasPrefix(diffArgs[0], "+") {
		// One spec names the left side; the newest export is the right.
		return []string{diffArgs[0], "EV~0"}, nil
	}

	if len(diffArgs) == 0 {
		return []string{"EV~1", "EV~0"}, nil
	}

	// A bare + hands the choice to the picker.
	candidates, err := be.Versions()
	if err != nil {
		return nil, fmt.Errorf("failed to get export version list: %v", err)
	}

	picked := differ.SelectVersions(candidates)
	log.Debugf("picked versions: %d", len(picked))

	switch len(picked) {
	case 0:
		return nil, nil
	case 2:
		return []string{picked[1].ID, picked[0].ID}, nil
	default:
		return []string{"EV~1", "EV~0"}, nil
	}
}

func (be *BackendLocal) Snapshot() ([]byte, error) {
	snapshots, err := be.Snapshots(be.Cmd.String("ev"))
	if err != nil {
		return nil, err
	}

	return snapshots[0], nil
}

// scanDir resolves the directory the version scan runs in. An explicit label
// override wins, then a .pexctl/label pin routes the scan into the matching
// exports.d subdirectory. With no label at all the exports live in the
// RootDir itself.
func (be *BackendLocal) scanDir() string {
	label := be.LabelOverride
	if label == "" {
		if pin, err := os.ReadFile(filepath.Join(be.RootDir, ".pexctl", "label")); err == nil {
			label = string(bytes.TrimSpace(pin))
		}
	}

	if label == "" {
		return be.RootDir
	}

	return filepath.Join(be.RootDir, be.exportsDir(), label)
}

// versionFromFile reads one export file into an export.Version. Files that
// cannot be read or decoded drop out of the listing rather than failing it.
func versionFromFile(path string) *export.Version {
	stat, err := os.Stat(path)
	if err != nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	// Rotated siblings may be gzipped. Metadata comes from the decoded body
	// while FileSize stays the on-disk size.
	body, err := export.MaybeGunzip(data)
	if err != nil {
		return nil
	}

	number := export.VersionNumber(body)
	if number < 0 {
		// Sealed payloads and pre-versioning documents have no version field.
		number = 0
	}

	return &export.Version{
		ID:            filepath.Base(path),
		VersionNumber: number,
		CreatedAt:     stat.ModTime(),
		FileSize:      stat.Size(),
		RecordCount:   int(gjson.GetBytes(body, "prompts.#").Int()),
		Source:        "local",
		Path:          path,
	}
}

// Versions implements backend.Backend. It globs the scan directory for the
// export document and its rotated siblings and lists them newest first, with
// the filename as the version ID. Remote backends cache their listings in the
// backend struct; rescanning the local filesystem is cheap enough not to
// bother.
func (be *BackendLocal) Versions(augmenter ...func(context.Context, *cli.Command, *export.ListOptions) error) ([]*export.Version, error) {
	matches, err := filepath.Glob(filepath.Join(be.scanDir(), "prompts.export.json*"))
	if err != nil {
		return nil, err
	}

	versions := make([]*export.Version, 0, len(matches))
	for _, path := range matches {
		if v := versionFromFile(path); v != nil {
			versions = append(versions, v)
		}
	}

	// Newest first, the same order the remote sources report.
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})

	return versions, nil
}

func (be *BackendLocal) Snapshots(specs ...string) ([][]byte, error) {
	candidates, _ := be.Versions()
	versions, err := evutil.Resolve(candidates, specs...)
	if err != nil {
		return nil, err
	}
	log.Debugf("resolved %d of %d versions", len(versions), len(candidates))

	results := make([][]byte, 0, len(versions))
	for _, v := range versions {
		body, err := os.ReadFile(v.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read export file: %w", err)
		}
		results = append(results, body)
	}

	return results, nil
}

func (be *BackendLocal) String() string {
	return be.Source.Config.Path
}

func (be *BackendLocal) Type() (string, error) {
	return be.Source.Type, nil
}

func (be *BackendLocal) exportsDir() string {
	if be.Source.Config.ExportsDir != "" {
		return be.Source.Config.ExportsDir
	}

	return "exports.d"
}
