// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package evutil offers export version discovery helpers. Given a list of
// export versions, it resolves user-supplied version specs - relative
// indexes, version numbers, ID prefixes or local file paths - to concrete
// versions.
package evutil
