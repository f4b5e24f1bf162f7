// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pexctl/pexctl/internal/log"
)

// Entry is one cached payload pulled back off disk. Key is the clear-text
// cache key; EncodedKey is the hashed filename it lives under.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
}

// Dir resolves the cache root: PEXCTL_CACHE_DIR when set, otherwise a pexctl
// directory under the user cache dir. Reports false when neither resolves,
// which callers treat the same as a disabled cache.
func Dir() (string, bool) {
	if override, ok := os.LookupEnv("PEXCTL_CACHE_DIR"); ok && override != "" {
		return override, true
	}

	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return "", false
	}
	return filepath.Join(dir, "pexctl"), true
}

// Enabled reports whether caching is on. Only PEXCTL_CACHE=0 or
// PEXCTL_CACHE=false turn it off.
func Enabled() bool {
	v := os.Getenv("PEXCTL_CACHE")
	return v != "0" && v != "false"
}

// EnsureBaseDir creates the cache root when caching is on and a root can be
// resolved. The bool reports whether the cache is usable.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}

	base, ok := Dir()
	if !ok {
		return "", false, nil
	}

	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache root: %w", err)
	}

	log.Debugf("cache root ready at %s", base)
	return base, true, nil
}

// EntryPath returns where the entry for clearKey lives, or would live, under
// the subdirs, and whether a file is there now. The path resolves whether or
// not caching is enabled; only Read and Write honor the kill switch.
func EntryPath(subdirs []string, clearKey string) (string, bool) {
	base, ok := Dir()
	if !ok {
		return "", false
	}

	p := entryFile(base, subdirs, clearKey)
	_, err := os.Stat(p)
	return p, err == nil
}

// Purge removes cache files older than hours. Zero or negative hours leave
// the cache alone. Directories are never removed, only their entries.
func Purge(hours int) error {
	if hours <= 0 {
		log.Debug("purge horizon unset, cache untouched")
		return nil
	}

	base, ok := Dir()
	if !ok {
		return nil
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	err := filepath.WalkDir(base, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}

		info, err := d.Info()
		if err != nil {
			// The entry can vanish between the walk and the stat when
			// overlapping runs share a cache, as parallel CI jobs do.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				log.WithError(err).Warnf("could not purge %s", path)
			} else {
				log.Debugf("purged %s", path)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk cache: %w", err)
	}

	return nil
}

// Read pulls the entry for clearKey back off disk. Payload whitespace is
// trimmed so a hand-edited entry still parses.
func Read(subdirs []string, clearKey string) (*Entry, bool) {
	if !Enabled() {
		return nil, false
	}

	p, ok := EntryPath(subdirs, clearKey)
	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}

	log.Debugf("cache hit for %s", clearKey)
	return &Entry{
		Key:        clearKey,
		EncodedKey: encodeKey(clearKey),
		Path:       p,
		Data:       bytes.TrimSpace(data),
	}, true
}

// Write stores data under subdirs, creating the tree as needed. Entries are
// written private to the user. With caching off this is a silent no-op.
func Write(subdirs []string, clearKey string, data []byte) error {
	if !Enabled() {
		return nil
	}

	base, ok := Dir()
	if !ok {
		return nil
	}

	p := entryFile(base, subdirs, clearKey)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache tree: %w", err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	log.Debugf("cached %d bytes for %s", len(data), clearKey)
	return nil
}

// entryFile builds the on-disk path for a key beneath the subdir components.
func entryFile(base string, subdirs []string, clearKey string) string {
	parts := append([]string{base}, subdirs...)
	parts = append(parts, encodeKey(clearKey))
	return filepath.Join(parts...)
}

// encodeKey hashes the clear key so arbitrary strings (payload URLs, version
// specs) make safe filenames.
func encodeKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
