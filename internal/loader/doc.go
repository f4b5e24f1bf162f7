// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package loader fetches export snapshots from backends and supports optional
// decryption for passphrase-protected export files.
package loader
