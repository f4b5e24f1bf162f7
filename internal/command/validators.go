// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// FlagValidatorType checks one flag value.
type FlagValidatorType func(any) error

// FlagValidators runs value through each validator in order, stopping at
// the first failure.
func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// GlobalFlagsValidator runs before every command. Cross-flag rules land
// here; individual flags validate themselves.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	return nil
}

// outputModes are the renderings the output pipeline understands.
var outputModes = []string{"text", "json", "raw", "yaml"}

// OutputValidator accepts only the known --output modes.
func OutputValidator(value any) error {
	for _, mode := range outputModes {
		if mode == value {
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", outputModes)
}
