// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package evutil

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pexctl/pexctl/internal/export"
)

// ErrURLNotSupported is reported when a spec looks like a payload URL.
// Versions are addressed by EV spec, number or id, never by URL.
var ErrURLNotSupported = errors.New("URL not supported")

// Resolve takes a collection of export versions plus specs and returns the
// versions that match. The version list is in descending version-number
// order, which effectively makes it most recent first.
func Resolve(versions []*export.Version, specs ...string) ([]*export.Version, error) {
	var result = []*export.Version{}

	// specs is going to be zero or more (almost certainly max=2) EV specs.
	// A spec could be -
	//   empty   - the current (most recent) export version.
	//   ev-id   - the version with that ID.
	//   EV~1    - the -1 version.
	//   number  - the specific version number.
	//   file    - an export file to read.

	// Short circuit if no spec was provided and return the most recent.
	if len(specs) == 0 {
		specs = []string{"EV~0"}
	}

	// Process each spec and resolve to a Version.
	for _, spec := range specs {
		ev, err := resolveSpec(spec, versions)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}

	return result, nil
}

// resolveSpec takes a single spec string and returns the matching Version.
// Specs can be:
//   - EV~N: relative index (0 is most recent)
//   - numeric: version number, or relative index when <= 0
//   - file path: read from local file
//   - ID prefix: find first version matching that ID prefix
func resolveSpec(spec string, versions []*export.Version) (*export.Version, error) {
	switch {
	case strings.HasPrefix(spec, "https://"):
		return nil, fmt.Errorf("%s: %w", spec, ErrURLNotSupported)

	case strings.HasPrefix(strings.ToUpper(spec), "EV~"):
		return resolveEVSpec(spec, versions)

	case isNumeric(spec):
		return resolveNumericSpec(spec, versions)

	case isFilePath(spec):
		return resolveFileSpec(spec)

	default:
		return resolveIDSpec(spec, versions)
	}
}

// resolveEVSpec handles EV~N format specs.
func resolveEVSpec(spec string, versions []*export.Version) (*export.Version, error) {
	parts := strings.Split(spec, "~")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid EV spec format: %s", spec)
	}

	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid EV index: %s", parts[1])
	}

	if index < 0 || index > len(versions)-1 {
		return nil, fmt.Errorf("index %d out of range for versions of length %d", index, len(versions))
	}

	return versions[index], nil
}

// resolveNumericSpec handles numeric version-number or relative index specs.
func resolveNumericSpec(spec string, versions []*export.Version) (*export.Version, error) {
	i, _ := strconv.Atoi(spec)

	if i <= 0 {
		// <= 0 means it's a relative index into the version list
		index := -i
		if index > len(versions)-1 {
			return nil, fmt.Errorf("index %d out of range for versions of length %d", index, len(versions))
		}
		return versions[index], nil
	}

	// Otherwise it's a version number that we have to find.
	for _, v := range versions {
		if v.VersionNumber == i {
			return v, nil
		}
	}

	return nil, fmt.Errorf("failed to find export version with number %d", i)
}

// resolveFileSpec handles file path specs.
func resolveFileSpec(spec string) (*export.Version, error) {
	return &export.Version{
		ID:            spec,
		VersionNumber: 0,
		Path:          spec,
		Source:        "file",
	}, nil
}

// resolveIDSpec handles export version ID prefix specs.
func resolveIDSpec(spec string, versions []*export.Version) (*export.Version, error) {
	for _, v := range versions {
		if strings.HasPrefix(v.ID, spec) {
			return v, nil
		}
	}

	return nil, fmt.Errorf("failed to find export version with ID prefix: %s", spec)
}

// isNumeric checks if a string is a numeric value.
func isNumeric(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// isFilePath checks if a string is a valid file path.
func isFilePath(s string) bool {
	_, err := os.Stat(s)
	return err == nil && !os.IsNotExist(err)
}
