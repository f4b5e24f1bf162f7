// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"github.com/pexctl/pexctl/internal/config"
)

// Meta is the per-invocation state handed to every command through its
// Metadata map. RootDir tracks the starting directory until a RootDir spec
// on the command line points it somewhere else, with Label riding along
// from the spec's optional second segment.
type Meta struct {
	Args        []string
	Config      config.Type
	RootDir     string
	Label       string
	StartingDir string
}
