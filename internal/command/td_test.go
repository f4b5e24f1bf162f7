// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pexctl/pexctl/internal/textdiff"
)

func TestPrintLineChanges(t *testing.T) {
	changes := []textdiff.LineChange{
		{Kind: textdiff.Unchanged, Text: "alpha"},
		{Kind: textdiff.Removed, Text: "bravo"},
		{Kind: textdiff.Added, Text: "charlie"},
	}

	var buf bytes.Buffer
	printLineChanges(&buf, changes, false)

	want := "  alpha\n- bravo\n+ charlie\n"
	assert.Equal(t, want, buf.String())
}

func TestPrintLineChangesEmpty(t *testing.T) {
	var buf bytes.Buffer
	printLineChanges(&buf, nil, false)
	assert.Empty(t, buf.String())
}

func TestReadTextArgFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))

	doc, err := readTextArg(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(doc))
}

func TestReadTextArgMissingFile(t *testing.T) {
	_, err := readTextArg(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
