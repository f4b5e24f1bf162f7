// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pexctl/pexctl/internal/export"
)

const schema = `
CREATE TABLE IF NOT EXISTS export_versions (
	id             TEXT PRIMARY KEY,
	version_number INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMP NOT NULL,
	file_size      INTEGER NOT NULL DEFAULT 0,
	record_count   INTEGER NOT NULL DEFAULT 0,
	description    TEXT NOT NULL DEFAULT '',
	payload        BLOB NOT NULL
);`

// ErrAlreadyKept is returned by Put when the version id is already in the
// archive.
var ErrAlreadyKept = errors.New("version already kept")

// Open opens (creating if needed) the archive database at path and applies
// the pragmas the archive relies on.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return db, nil
}

// Put inserts one export version and its payload into the archive. A
// duplicate id reports ErrAlreadyKept so the keep command can tell the user
// nicely.
func Put(db *sql.DB, v *export.Version, payload []byte) error {
	created := v.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO export_versions
		   (id, version_number, created_at, file_size, record_count, description, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.VersionNumber, created, v.FileSize, v.RecordCount, v.Description, payload)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrAlreadyKept, v.ID)
		}
		return fmt.Errorf("failed to store export version: %w", err)
	}

	return nil
}
