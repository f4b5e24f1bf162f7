// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
)

var traceEnabled bool

// InitLogger sets up Apex from the environment. PEXCTL_LOG picks the level
// (error when unset) and PEXCTL_LOG_FORMAT=json swaps the line handler for
// apex's JSON handler so collectors can ingest the stream.
func InitLogger() {
	envLevel := strings.ToLower(os.Getenv("PEXCTL_LOG"))
	if envLevel == "" {
		envLevel = "error"
	}
	traceEnabled = envLevel == "trace"

	if strings.EqualFold(os.Getenv("PEXCTL_LOG_FORMAT"), "json") {
		log.SetHandler(jsonhandler.New(os.Stdout))
	} else {
		log.SetHandler(NewLineHandler(os.Stdout))
	}
	log.SetLevel(parseLevel(envLevel))
}

// parseLevel maps a PEXCTL_LOG value onto an apex level. Trace rides on
// debug because apex has no level below it; anything unrecognized lands on
// error.
func parseLevel(envLevel string) log.Level {
	switch envLevel {
	case "trace", "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.ErrorLevel
	}
}

// LineHandler writes one compact line per entry (timestamp, level letter,
// message).
type LineHandler struct {
	w io.Writer
}

// NewLineHandler returns a LineHandler writing to w.
func NewLineHandler(w io.Writer) *LineHandler {
	return &LineHandler{w: w}
}

var levelLetters = map[log.Level]string{
	log.DebugLevel: "D",
	log.InfoLevel:  "I",
	log.WarnLevel:  "W",
	log.ErrorLevel: "E",
	log.FatalLevel: "F",
}

// HandleLog implements the log.Handler interface.
func (h *LineHandler) HandleLog(e *log.Entry) error {
	message := e.Message

	letter, ok := levelLetters[e.Level]
	if !ok {
		letter = "?"
	}
	// Tracef smuggles its level through the message prefix.
	if after, found := strings.CutPrefix(message, "TRACE: "); found {
		letter, message = "T", after
	}

	stamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(h.w, "%s %s %s\n", stamp, letter, message)

	return nil
}

// Tracef logs below Debug. Apex has no such level, so the line handler spots
// the prefix and relabels the entry.
func Tracef(format string, args ...interface{}) {
	if traceEnabled {
		log.Debugf("TRACE: "+format, args...)
	}
}

// The rest are thin forwards so callers never import apex themselves.

func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

func Debug(msg string) {
	log.Debug(msg)
}

func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func WithError(err error) *log.Entry {
	return log.WithError(err)
}
