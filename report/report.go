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

package report

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"

	"github.com/permdiff/permdiff/diff"
)

// Format selects the report output format.
type Format int

const (
	// FormatText is the plain text report.
	FormatText Format = iota
	// FormatRich is the styled table report.
	FormatRich
)

// FormatIds maps formats to their command-line and config file spellings.
var FormatIds = map[Format][]string{
	FormatText: {"text"},
	FormatRich: {"rich"},
}

func (f Format) String() string {
	if f == FormatRich {
		return "rich"
	}
	return "text"
}

// ParseFormat parses a format name case-insensitively. Unknown names return
// FormatText along with an error so callers can warn and fall back rather
// than fail the run.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "text":
		return FormatText, nil
	case "rich":
		return FormatRich, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q", name)
	}
}

// Report holds everything a renderer needs: the two root labels as given on
// the command line and the discrepancies found between them.
type Report struct {
	Root1         string
	Root2         string
	Discrepancies []diff.Discrepancy
}

// Renderer writes a report to w.
type Renderer interface {
	Render(w io.Writer, rep Report) error
}

// NewRenderer returns the renderer for the given format. styled only
// affects the rich format; see StylingAvailable.
func NewRenderer(format Format, styled bool) Renderer {
	if format == FormatRich {
		return &TableRenderer{Styled: styled}
	}
	return &TextRenderer{}
}

// StylingAvailable reports whether w is an ANSI-capable terminal and color
// has not been disabled via NO_COLOR. Reports written to files and pipes
// render unstyled.
func StylingAvailable(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// sortedResults returns the discrepancies ordered by relative path without
// mutating the caller's slice. Comparison output is unordered; the sort
// happens here, at render time.
func sortedResults(results []diff.Discrepancy) []diff.Discrepancy {
	sorted := slices.Clone(results)
	diff.SortByPath(sorted)
	return sorted
}
