// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package backend implements the export source integrations (api, local,
// s3, and archive) and exposes common behaviors for querying export versions
// and snapshot payloads.
package backend
