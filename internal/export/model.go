// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package export models prompt-library export documents: the records inside
// a snapshot, the snapshot envelope, and the per-version metadata that the
// listing commands render. It also understands the wire encodings an export
// can arrive in (gzip, encrypted envelope).
package export

import "time"

// Record is one prompt in an export snapshot.
type Record struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Content      string                 `json:"content"`
	Description  string                 `json:"description,omitempty"`
	System       string                 `json:"systemPrompt,omitempty"`
	Model        string                 `json:"model,omitempty"`
	Temperature  *float64               `json:"temperature,omitempty"`
	Variables    map[string]interface{} `json:"variables,omitempty"`
	VersionLabel string                 `json:"versionLabel,omitempty"`
}

// Snapshot is a parsed export document. Record order is preserved from the
// document.
type Snapshot struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Prompts    []Record  `json:"prompts"`
}

// Version is the metadata for one export version, tagged for the jsonapi
// output pipeline.
type Version struct {
	ID            string    `jsonapi:"primary,export-versions"`
	VersionNumber int       `jsonapi:"attr,version-number"`
	CreatedAt     time.Time `jsonapi:"attr,created-at,iso8601"`
	FileSize      int64     `jsonapi:"attr,file-size"`
	RecordCount   int       `jsonapi:"attr,record-count"`
	Description   string    `jsonapi:"attr,description"`
	Source        string    `jsonapi:"attr,source"`

	// DownloadURL is where the payload can be fetched from, for backends
	// that serve it over HTTP.
	DownloadURL string `jsonapi:"attr,download-url"`

	// Path is a local payload location for file-backed versions.
	Path string `jsonapi:"attr,path"`
}

// ListOptions narrows a version listing before it is fetched. Only the api
// backend honors these server-side; the other backends list everything and
// trim afterwards.
type ListOptions struct {
	PageNumber int
	PageSize   int
	Search     string
}
