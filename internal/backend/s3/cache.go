// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"github.com/pexctl/pexctl/internal/cacheutil"
	"github.com/pexctl/pexctl/internal/config"
)

// cacheScope returns the components that namespace this source's cache
// entries. Bucket, prefix and key together identify one export object, so
// two workspaces pointed at different objects never collide.
func (be *BackendS3) cacheScope() []string {
	return []string{be.Source.Config.Bucket, be.Source.Config.Prefix, be.Source.Config.Key}
}

// cacheRead returns the cached document for key when caching is enabled
// and an entry exists.
func (be *BackendS3) cacheRead(key string) (*cacheutil.Entry, bool) {
	return cacheutil.Read(be.cacheScope(), key)
}

func (be *BackendS3) cacheWrite(key string, data []byte) error {
	return cacheutil.Write(be.cacheScope(), key, data)
}

// purgeCache drops entries older than the configured cache.clean horizon.
func purgeCache() error {
	cleanHours, _ := config.GetInt("cache.clean")
	return cacheutil.Purge(cleanHours)
}
