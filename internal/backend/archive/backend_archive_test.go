// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/export"
)

func newMockBackend(t *testing.T, limit int) (*BackendArchive, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cmd := &cli.Command{
		Name:  "vq",
		Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Value: limit}},
	}

	be, err := NewBackendArchive(context.Background(), cmd, WithDB(db))
	require.NoError(t, err)

	return be, mock
}

func TestVersions(t *testing.T) {
	be, mock := newMockBackend(t, 0)

	created := time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "version_number", "created_at", "file_size", "record_count", "description"}).
		AddRow("ev-0007", 7, created, int64(2048), 12, "post-review").
		AddRow("ev-0006", 6, created.Add(-time.Hour), int64(1984), 11, "")

	mock.ExpectQuery("SELECT id, version_number, created_at, file_size, record_count, description").
		WillReturnRows(rows)

	got, err := be.Versions()
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ev-0007", got[0].ID)
	assert.Equal(t, 7, got[0].VersionNumber)
	assert.Equal(t, created, got[0].CreatedAt)
	assert.Equal(t, int64(2048), got[0].FileSize)
	assert.Equal(t, 12, got[0].RecordCount)
	assert.Equal(t, "post-review", got[0].Description)
	assert.Equal(t, "archive", got[0].Source)
	assert.Equal(t, "archive", got[1].Source)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionsLimit(t *testing.T) {
	be, mock := newMockBackend(t, 1)

	created := time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "version_number", "created_at", "file_size", "record_count", "description"}).
		AddRow("ev-0007", 7, created, int64(2048), 12, "").
		AddRow("ev-0006", 6, created.Add(-time.Hour), int64(1984), 11, "")

	mock.ExpectQuery("SELECT id, version_number, created_at, file_size, record_count, description").
		WillReturnRows(rows)

	got, err := be.Versions()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ev-0007", got[0].ID)
}

func TestSnapshots(t *testing.T) {
	be, mock := newMockBackend(t, 0)

	created := time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "version_number", "created_at", "file_size", "record_count", "description"}).
		AddRow("ev-0007", 7, created, int64(64), 1, "")

	mock.ExpectQuery("SELECT id, version_number, created_at, file_size, record_count, description").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT payload FROM export_versions").
		WithArgs("ev-0007").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow([]byte(`{"version":7,"prompts":[]}`)))

	got, err := be.Snapshots("EV~0")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"version":7,"prompts":[]}`, string(got[0]))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPut(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)
	v := &export.Version{
		ID:            "ev-0008",
		VersionNumber: 8,
		CreatedAt:     created,
		FileSize:      128,
		RecordCount:   3,
		Description:   "pre-release",
	}

	mock.ExpectExec("INSERT INTO export_versions").
		WithArgs("ev-0008", 8, created, int64(128), 3, "pre-release", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, Put(db, v, []byte(`{}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO export_versions").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: export_versions.id"))

	err = Put(db, &export.Version{ID: "ev-0008"}, []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyKept))
	assert.Contains(t, err.Error(), "ev-0008")
}
