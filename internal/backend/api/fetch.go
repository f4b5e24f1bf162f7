// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/apex/log"
)

// fetch returns the document at url, consulting the export cache before
// going to the network. Fetched documents land back in the cache so
// repeated queries against the same version stay off the wire.
func (be *BackendAPI) fetch(url string) (bytes.Buffer, error) {
	var doc bytes.Buffer

	if err := purgeCache(); err != nil {
		log.WithError(err).Warn("failed to purge cache")
	}

	if entry, ok := be.cacheRead(url); ok {
		log.Debugf("cache hit: %s", entry.Path)
		doc.Write(entry.Data)
		return doc, nil
	}

	token, err := be.Token()
	if err != nil {
		return doc, fmt.Errorf("failed to resolve api token: %w", err)
	}

	req, err := http.NewRequestWithContext(be.Ctx, http.MethodGet, url, nil)
	if err != nil {
		return doc, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return doc, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// An error body must never be cached under the document's key.
	if resp.StatusCode != http.StatusOK {
		return doc, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}

	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return doc, fmt.Errorf("failed to read response: %w", err)
	}

	if err := be.cacheWrite(url, doc.Bytes()); err != nil {
		log.WithError(err).Warn("failed to write export to cache")
	}

	return doc, nil
}
