// Copyright 2025 Permdiff
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package logging configures the process-wide slog logger. Diagnostics go
// to stderr so they never mix with report output on stdout; an optional
// file destination gets size-based rotation.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelCritical is one step above slog's built-in error level, for failures
// that abort the whole run.
const LevelCritical = slog.Level(12)

// LevelIds maps levels to their command-line and config file spellings.
var LevelIds = map[slog.Level][]string{
	slog.LevelDebug: {"DEBUG"},
	slog.LevelInfo:  {"INFO"},
	slog.LevelWarn:  {"WARNING", "WARN"},
	slog.LevelError: {"ERROR"},
	LevelCritical:   {"CRITICAL"},
}

// ParseLevel parses a level name case-insensitively. Unknown names return
// INFO along with an error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Options configure Setup.
type Options struct {
	// Level is the minimum level emitted.
	Level slog.Level
	// File, when set, duplicates records to a size-rotated log file.
	File string
	// Out overrides the default stderr destination.
	Out io.Writer
}

// Setup builds the process logger. The returned close function releases the
// rotating file writer when File was set; it is always non-nil and safe to
// call.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	var out io.Writer = os.Stderr
	if opts.Out != nil {
		out = opts.Out
	}

	closer := func() error { return nil }
	if opts.File != "" {
		// lumberjack manages the file itself, so the path is on the real
		// filesystem regardless of what the rest of the run uses.
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out = io.MultiWriter(out, rotated)
		closer = rotated.Close
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: renameLevel,
	})
	return slog.New(handler), closer, nil
}

// Critical logs at LevelCritical.
func Critical(log *slog.Logger, msg string, args ...any) {
	log.Log(context.Background(), LevelCritical, msg, args...)
}

// renameLevel renders LevelCritical by name instead of slog's "ERROR+4".
func renameLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level >= LevelCritical {
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}
