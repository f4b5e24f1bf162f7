// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package differ renders raw document diffs between export versions and hosts
// the version picker TUI.
package differ
