// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"os"
	"path/filepath"
	"strings"
)

// AbsDir anchors a possibly relative directory to the current working
// directory. Absolute paths pass through untouched.
func AbsDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}

	cwd, _ := os.Getwd()
	return filepath.Join(cwd, dir)
}

// ParseRootDir splits a RootDir argument of the form dir[::label] and returns
// the absolute directory plus the optional export label override. The
// directory must exist.
func ParseRootDir(rootDir string) (string, string, error) {
	if rootDir == "" {
		return "", "", os.ErrInvalid
	}

	// Anything past a second :: is noise; only the first label counts.
	parts := strings.Split(rootDir, "::")
	dir := AbsDir(parts[0])
	var label string
	if len(parts) > 1 {
		label = parts[1]
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", "", err
	}
	if !info.IsDir() {
		return "", "", os.ErrInvalid
	}

	return dir, label, nil
}
