// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Parse decodes an export document into a Snapshot. The document must
// already be plaintext JSON; gunzip and decrypt happen upstream. Unknown
// fields are ignored.
func Parse(doc []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}

	return &snap, nil
}

// IsEncrypted reports whether the document is an encrypted export envelope.
func IsEncrypted(doc []byte) bool {
	return gjson.GetBytes(doc, "encrypted_data").Exists()
}

// VersionNumber pulls the version number out of a raw export document
// without a full parse. Returns -1 when the field is missing.
func VersionNumber(doc []byte) int {
	v := gjson.GetBytes(doc, "version")
	if !v.Exists() {
		return -1
	}

	return int(v.Int())
}
