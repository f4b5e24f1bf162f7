// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Augmenter mutates a backend's options object before each page fetch,
// letting a command push flag-derived hints (search terms, page sizing)
// server side. Returning an error aborts the listing.
type Augmenter[T any] func(
	context.Context,
	*cli.Command,
	*T,
) error
