// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/util"
)

// Option mutates a BackendAPI under construction. Ctx, Cmd and the defaults
// are all in place before the first option runs.
type Option func(be *BackendAPI) error

// NewBackendAPI builds an api source and applies the options in order.
func NewBackendAPI(ctx context.Context, cmd *cli.Command, options ...Option) (*BackendAPI, error) {
	be := &BackendAPI{Ctx: ctx, Cmd: cmd}
	be.RootDir, _ = os.Getwd()
	be.Version = 1
	be.Source.Type = "api"

	for _, opt := range options {
		if err := opt(be); err != nil {
			return nil, err
		}
	}

	return be, nil
}

// BuckNaked readies an api source for commands running outside any export
// workspace. There is no config file to read, so the host comes from the
// flag or the pexctl config and token resolution rides on it.
func BuckNaked() Option {
	return func(be *BackendAPI) error {
		// THINK Host resolution differs subtly per source type. Unify it.
		if be.Cmd.IsSet("host") {
			be.Source.Config.Hostname = be.Cmd.String("host")
			be.Source.Config.Token, _ = be.Token()
		} else if cfgHost, _ := config.GetString("host"); cfgHost != "" {
			_ = be.Cmd.Set("host", cfgHost)
			be.Source.Config.Hostname = cfgHost
		}

		log.Debugf("BuckNaked(): hostname: %s", be.Source.Config.Hostname)

		return nil
	}
}

// FromRootDir points the source at rootDir and reads its config file.
func FromRootDir(rootDir string) Option {
	return func(be *BackendAPI) error {
		be.RootDir = util.AbsDir(rootDir)
		log.Debugf("api source root: %s", be.RootDir)

		return be.load()
	}
}

// load pulls the workspace source config into the struct and fills in the
// token when the config leaves it out.
func (be *BackendAPI) load() error {
	data, err := os.ReadFile(filepath.Join(be.RootDir, ".pexctl", "source.json"))
	if err != nil {
		return fmt.Errorf("failed to read source config: %w", err)
	}

	var cfg BackendAPI
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse source config: %w", err)
	}
	if cfg.Source.Type != "api" {
		return fmt.Errorf("source config names a %s source, not api", cfg.Source.Type)
	}

	be.Version = cfg.Version
	be.Source = cfg.Source

	if be.Source.Config.Token == nil {
		token, _ := be.Token()
		be.Source.Config.Token = token
	}

	return nil
}
