// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// MaybeGunzip transparently decompresses a gzip payload, sniffing the two
// magic bytes. Anything else passes through untouched.
func MaybeGunzip(doc []byte) ([]byte, error) {
	if len(doc) < 2 || doc[0] != 0x1f || doc[1] != 0x8b {
		return doc, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip payload: %w", err)
	}
	defer zr.Close() //nolint:errcheck

	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to gunzip payload: %w", err)
	}

	return plain, nil
}
