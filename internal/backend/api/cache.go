// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"os"

	"github.com/pexctl/pexctl/internal/cacheutil"
	"github.com/pexctl/pexctl/internal/config"
)

// cacheScope returns the hostname and organization that namespace this
// source's cache entries. PEXCTL_HOSTNAME and PEXCTL_ORGANIZATION override
// the source config so a redirected service does not serve another host's
// cached documents.
func (be *BackendAPI) cacheScope() []string {
	hostname := be.Source.Config.Hostname
	if h, ok := os.LookupEnv("PEXCTL_HOSTNAME"); ok {
		hostname = h
	}

	organization := be.Source.Config.Organization
	if org, ok := os.LookupEnv("PEXCTL_ORGANIZATION"); ok {
		organization = org
	}

	return []string{hostname, organization}
}

// cacheRead returns the cached document for key when caching is enabled
// and an entry exists.
func (be *BackendAPI) cacheRead(key string) (*cacheutil.Entry, bool) {
	return cacheutil.Read(be.cacheScope(), key)
}

func (be *BackendAPI) cacheWrite(key string, data []byte) error {
	return cacheutil.Write(be.cacheScope(), key, data)
}

// purgeCache drops entries older than the configured cache.clean horizon.
func purgeCache() error {
	cleanHours, _ := config.GetInt("cache.clean")
	return cacheutil.Purge(cleanHours)
}
