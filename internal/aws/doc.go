// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package aws builds the SDK v2 clients the s3 source runs on: shared
// config loading with profile, region and endpoint overrides, and
// path-style addressing for MinIO-style object stores.
package aws
