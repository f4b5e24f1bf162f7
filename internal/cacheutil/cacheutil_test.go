// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	payloadV3 = `{"version":3,"exportedAt":"2026-02-11T16:42:07Z","prompts":[{"id":"prm-7f3a1c09","name":"acme.support.triage"}]}`
	payloadV4 = `{"version":4,"exportedAt":"2026-02-12T08:15:33Z","prompts":[{"id":"prm-7f3a1c09","name":"acme.support.triage"},{"id":"prm-0b9d44e2","name":"acme.billing.summarize"}]}`
)

// exportSubdirs namespaces entries the way the s3 backend does: bucket,
// prefix, object key.
var exportSubdirs = []string{"acme-prompt-exports", "exports", "prompts.export.json"}

func entryPathFor(base string, subdirs []string, clearKey string) string {
	parts := append([]string{base}, subdirs...)
	parts = append(parts, encodeKey(clearKey))
	return filepath.Join(parts...)
}

func TestDir(t *testing.T) {
	t.Run("PEXCTL_CACHE_DIR wins", func(t *testing.T) {
		custom := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", custom)

		got, ok := Dir()

		assert.True(t, ok)
		assert.Equal(t, custom, got)
	})

	t.Run("empty override falls back to the platform dir", func(t *testing.T) {
		t.Setenv("PEXCTL_CACHE_DIR", "")

		got, ok := Dir()

		// os.UserCacheDir can fail on a stripped-down environment, in
		// which case Dir reports false and there is nothing to check.
		if ok {
			assert.True(t, filepath.IsAbs(got))
			assert.Equal(t, "pexctl", filepath.Base(got))
		}
	})
}

// TestEnabled pins the exact-match kill switch. Only "0" and "false"
// disable the cache; "no" and "off" do not.
func TestEnabled(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"unset", "", true},
		{"1", "1", true},
		{"true", "true", true},
		{"no is not honored", "no", true},
		{"off is not honored", "off", true},
		{"0", "0", false},
		{"false", "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PEXCTL_CACHE", tt.value)
			assert.Equal(t, tt.want, Enabled())
		})
	}
}

func TestEnsureBaseDir(t *testing.T) {
	t.Run("disabled cache resolves nothing", func(t *testing.T) {
		t.Setenv("PEXCTL_CACHE", "0")

		base, ok, err := EnsureBaseDir()

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, base)
	})

	t.Run("creates a missing tree", func(t *testing.T) {
		want := filepath.Join(t.TempDir(), "exports", "cold")
		t.Setenv("PEXCTL_CACHE_DIR", want)
		t.Setenv("PEXCTL_CACHE", "1")
		assert.NoFileExists(t, want)

		base, ok, err := EnsureBaseDir()

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, base)
		assert.DirExists(t, want)
	})

	t.Run("reuses an existing tree", func(t *testing.T) {
		want := filepath.Join(t.TempDir(), "exports")
		require.NoError(t, os.MkdirAll(want, 0o755))
		t.Setenv("PEXCTL_CACHE_DIR", want)
		t.Setenv("PEXCTL_CACHE", "1")

		base, ok, err := EnsureBaseDir()

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, base)
	})
}

func TestEntryPath(t *testing.T) {
	t.Run("miss still yields the would-be path", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)

		p, exists := EntryPath(exportSubdirs, "vQpMm3TnL4kqtJlc")

		assert.False(t, exists)
		assert.Equal(t, entryPathFor(base, exportSubdirs, "vQpMm3TnL4kqtJlc"), p)
	})

	t.Run("hit after a write", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)
		t.Setenv("PEXCTL_CACHE", "1")
		require.NoError(t, Write(exportSubdirs, "vQpMm3TnL4kqtJlc", []byte(payloadV3)))

		p, exists := EntryPath(exportSubdirs, "vQpMm3TnL4kqtJlc")

		assert.True(t, exists)
		assert.Equal(t, entryPathFor(base, exportSubdirs, "vQpMm3TnL4kqtJlc"), p)
	})

	t.Run("kill switch does not gate path lookup", func(t *testing.T) {
		// Only Read and Write honor PEXCTL_CACHE. EntryPath answers
		// where an entry would live either way.
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)
		t.Setenv("PEXCTL_CACHE", "0")

		p, exists := EntryPath(exportSubdirs, "vQpMm3TnL4kqtJlc")

		assert.False(t, exists)
		assert.True(t, strings.HasPrefix(p, base))
	})
}

func TestReadWrite(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)
		t.Setenv("PEXCTL_CACHE", "1")

		key := "vQpMm3TnL4kqtJlc"
		require.NoError(t, Write(exportSubdirs, key, []byte(payloadV3)))

		entry, found := Read(exportSubdirs, key)

		require.True(t, found)
		assert.Equal(t, key, entry.Key)
		assert.Equal(t, encodeKey(key), entry.EncodedKey)
		assert.Equal(t, entryPathFor(base, exportSubdirs, key), entry.Path)
		assert.Equal(t, []byte(payloadV3), entry.Data)
	})

	t.Run("surrounding whitespace is trimmed on read", func(t *testing.T) {
		t.Setenv("PEXCTL_CACHE_DIR", t.TempDir())
		t.Setenv("PEXCTL_CACHE", "1")

		padded := []byte("\n  " + payloadV3 + "  \n")
		require.NoError(t, Write(exportSubdirs, "padded", padded))

		entry, found := Read(exportSubdirs, "padded")

		require.True(t, found)
		assert.Equal(t, []byte(payloadV3), entry.Data)
	})

	t.Run("write replaces a stale payload", func(t *testing.T) {
		t.Setenv("PEXCTL_CACHE_DIR", t.TempDir())
		t.Setenv("PEXCTL_CACHE", "1")

		key := "latest"
		require.NoError(t, Write(exportSubdirs, key, []byte(payloadV3)))
		require.NoError(t, Write(exportSubdirs, key, []byte(payloadV4)))

		entry, found := Read(exportSubdirs, key)

		require.True(t, found)
		assert.Equal(t, []byte(payloadV4), entry.Data)
	})

	t.Run("empty payload", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)
		t.Setenv("PEXCTL_CACHE", "1")

		require.NoError(t, Write(exportSubdirs, "empty", []byte{}))

		p, exists := EntryPath(exportSubdirs, "empty")
		require.True(t, exists)
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Zero(t, info.Size())

		entry, found := Read(exportSubdirs, "empty")
		require.True(t, found)
		assert.Empty(t, entry.Data)
	})

	t.Run("miss", func(t *testing.T) {
		t.Setenv("PEXCTL_CACHE_DIR", t.TempDir())
		t.Setenv("PEXCTL_CACHE", "1")

		entry, found := Read(exportSubdirs, "never-written")

		assert.False(t, found)
		assert.Nil(t, entry)
	})

	t.Run("disabled cache reads nothing", func(t *testing.T) {
		t.Setenv("PEXCTL_CACHE_DIR", t.TempDir())
		t.Setenv("PEXCTL_CACHE", "0")

		entry, found := Read(exportSubdirs, "vQpMm3TnL4kqtJlc")

		assert.False(t, found)
		assert.Nil(t, entry)
	})

	t.Run("disabled cache writes nothing", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)
		t.Setenv("PEXCTL_CACHE", "0")

		err := Write(exportSubdirs, "vQpMm3TnL4kqtJlc", []byte(payloadV3))

		assert.NoError(t, err)
		assert.NoFileExists(t, entryPathFor(base, exportSubdirs, "vQpMm3TnL4kqtJlc"))
	})

	t.Run("entries are private to the user", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)
		t.Setenv("PEXCTL_CACHE", "1")

		require.NoError(t, Write(exportSubdirs, "vQpMm3TnL4kqtJlc", []byte(payloadV3)))

		info, err := os.Stat(entryPathFor(base, exportSubdirs, "vQpMm3TnL4kqtJlc"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})
}

func TestPurge(t *testing.T) {
	// age backdates an entry's mtime so Purge sees it as hours old.
	age := func(t *testing.T, path string, hours int) {
		t.Helper()
		past := time.Now().Add(-time.Duration(hours) * time.Hour)
		require.NoError(t, os.Chtimes(path, past, past))
	}

	t.Run("zero hours keeps everything", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)
		t.Setenv("PEXCTL_CACHE", "1")

		require.NoError(t, Write(exportSubdirs, "stale", []byte(payloadV3)))
		age(t, entryPathFor(base, exportSubdirs, "stale"), 72)

		require.NoError(t, Purge(0))

		assert.FileExists(t, entryPathFor(base, exportSubdirs, "stale"))
	})

	t.Run("expired entries go and fresh ones stay", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("PEXCTL_CACHE_DIR", base)
		t.Setenv("PEXCTL_CACHE", "1")

		require.NoError(t, Write(exportSubdirs, "stale", []byte(payloadV3)))
		require.NoError(t, Write(exportSubdirs, "fresh", []byte(payloadV4)))
		age(t, entryPathFor(base, exportSubdirs, "stale"), 49)

		require.NoError(t, Purge(24))

		assert.NoFileExists(t, entryPathFor(base, exportSubdirs, "stale"))
		assert.FileExists(t, entryPathFor(base, exportSubdirs, "fresh"))
		// Purge removes entries, never the tree around them.
		assert.DirExists(t, filepath.Join(base, filepath.Join(exportSubdirs...)))
	})
}

func TestEncodeKey(t *testing.T) {
	keys := []string{
		"vQpMm3TnL4kqtJlc",
		"s3://acme-prompt-exports/exports/prompts.export.json",
		"acme.support.triage@v14",
		"key with spaces",
		"key\nwith\nnewlines",
		"clé-accentuée",
	}

	seen := map[string]string{}
	for _, key := range keys {
		got := encodeKey(key)

		assert.Equal(t, got, encodeKey(key))
		assert.Regexp(t, "^[0-9a-f]{64}$", got)

		if prior, dup := seen[got]; dup {
			t.Errorf("%q and %q collide", prior, key)
		}
		seen[got] = key
	}
}

// TestCacheLifecycle walks the path a backend takes between two pulls of
// the same export object.
func TestCacheLifecycle(t *testing.T) {
	base := t.TempDir()
	t.Setenv("PEXCTL_CACHE_DIR", base)
	t.Setenv("PEXCTL_CACHE", "1")

	require.True(t, Enabled())

	dir, ok, err := EnsureBaseDir()
	require.NoError(t, err)
	require.True(t, ok)
	assert.DirExists(t, dir)

	require.NoError(t, Write(exportSubdirs, "vQpMm3TnL4kqtJlc", []byte(payloadV3)))
	require.NoError(t, Write(exportSubdirs, "9dKcR2wYhAzEfGnU", []byte(payloadV4)))

	older, found := Read(exportSubdirs, "vQpMm3TnL4kqtJlc")
	require.True(t, found)
	newer, found := Read(exportSubdirs, "9dKcR2wYhAzEfGnU")
	require.True(t, found)
	assert.Equal(t, []byte(payloadV3), older.Data)
	assert.Equal(t, []byte(payloadV4), newer.Data)

	require.NoError(t, Purge(1))

	_, exists := EntryPath(exportSubdirs, "vQpMm3TnL4kqtJlc")
	assert.True(t, exists)
}
