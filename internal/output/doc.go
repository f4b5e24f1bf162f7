// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package output turns query rows into what the user asked for: jsonapi
// flattening of tagged row types, --attrs projection and transforms,
// --sort ordering, and the text, json, yaml and raw writers.
package output
