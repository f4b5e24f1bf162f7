// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		envLevel string
		want     log.Level
	}{
		{name: "trace rides on debug", envLevel: "trace", want: log.DebugLevel},
		{name: "debug", envLevel: "debug", want: log.DebugLevel},
		{name: "info", envLevel: "info", want: log.InfoLevel},
		{name: "warn", envLevel: "warn", want: log.WarnLevel},
		{name: "fatal", envLevel: "fatal", want: log.FatalLevel},
		{name: "error", envLevel: "error", want: log.ErrorLevel},
		{name: "unrecognized lands on error", envLevel: "loud", want: log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.envLevel))
		})
	}
}

func TestLineHandler(t *testing.T) {
	tests := []struct {
		name      string
		entry     *log.Entry
		wantLevel string
		wantMsg   string
	}{
		{
			name:      "debug entry",
			entry:     &log.Entry{Level: log.DebugLevel, Message: "cache hit"},
			wantLevel: "D",
			wantMsg:   "cache hit",
		},
		{
			name:      "error entry",
			entry:     &log.Entry{Level: log.ErrorLevel, Message: "s3 get object failed"},
			wantLevel: "E",
			wantMsg:   "s3 get object failed",
		},
		{
			name:      "trace prefix demotes the level letter",
			entry:     &log.Entry{Level: log.DebugLevel, Message: "TRACE: key parsed"},
			wantLevel: "T",
			wantMsg:   "key parsed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewLineHandler(&buf)

			err := h.HandleLog(tt.entry)
			assert.NoError(t, err)

			line := strings.TrimSuffix(buf.String(), "\n")
			fields := strings.SplitN(line, " ", 4)
			// timestamp is two fields (date and clock)
			assert.Len(t, fields, 4)
			assert.Equal(t, tt.wantLevel, fields[2])
			assert.Equal(t, tt.wantMsg, fields[3])
		})
	}
}
