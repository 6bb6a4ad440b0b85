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

package commands

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"

	"github.com/permdiff/permdiff/diff"
	"github.com/permdiff/permdiff/logging"
	"github.com/permdiff/permdiff/report"
)

// CompareCmd holds everything one comparison run needs.
type CompareCmd struct {
	Fs  afero.Fs
	Out io.Writer
	Log *slog.Logger

	Root1 string // First directory as given on the command line
	Root2 string // Second directory as given on the command line

	Recursive       bool
	IgnoreOwnership bool
	Include         string // Optional regexp; only matching relative paths are compared
	Exclude         string // Optional regexp; matching relative paths are skipped
	Format          report.Format
	ReportFile      string // When set, the report goes to this file instead of Out
}

// NewCompareCmd creates a CompareCmd with default settings.
func NewCompareCmd(out io.Writer, log *slog.Logger, root1, root2 string) *CompareCmd {
	return &CompareCmd{
		Fs:    afero.NewOsFs(),
		Out:   out,
		Log:   log,
		Root1: root1,
		Root2: root2,
	}
}

// Run executes the comparison and returns the process exit code. Differences
// are results, not failures: the run exits 0 however many it finds. Root
// validation errors, report write failures and unexpected errors exit 1.
func (c *CompareCmd) Run() int {
	include, err := compileFilter(c.Include)
	if err != nil {
		c.logger().Error("invalid include pattern", "pattern", c.Include, "error", err)
		return 1
	}
	exclude, err := compileFilter(c.Exclude)
	if err != nil {
		c.logger().Error("invalid exclude pattern", "pattern", c.Exclude, "error", err)
		return 1
	}

	root1, err := filepath.Abs(c.Root1)
	if err != nil {
		c.logger().Error("cannot resolve directory", "path", c.Root1, "error", err)
		return 1
	}
	root2, err := filepath.Abs(c.Root2)
	if err != nil {
		c.logger().Error("cannot resolve directory", "path", c.Root2, "error", err)
		return 1
	}

	comparator := diff.NewComparator(c.Fs, c.Log)
	results, err := comparator.Compare(root1, root2, diff.Options{
		Recursive:       c.Recursive,
		IgnoreOwnership: c.IgnoreOwnership,
		Include:         include,
		Exclude:         exclude,
	})
	if err != nil {
		if errors.Is(err, diff.ErrRootNotFound) || errors.Is(err, diff.ErrNotDirectory) {
			c.logger().Error("cannot compare directories", "error", err)
		} else {
			logging.Critical(c.logger(), "comparison failed", "error", err)
		}
		return 1
	}

	summary := diff.CalculateSummary(results)
	c.logger().Info("comparison complete",
		"differing", summary.Differing,
		"missing_in_first", summary.MissingSource,
		"missing_in_second", summary.MissingTarget)

	rep := report.Report{Root1: c.Root1, Root2: c.Root2, Discrepancies: results}
	if c.ReportFile != "" {
		return c.writeReportFile(rep)
	}

	renderer := report.NewRenderer(c.Format, report.StylingAvailable(c.Out))
	if err := renderer.Render(c.Out, rep); err != nil {
		c.logger().Error("failed to write report", "error", err)
		return 1
	}
	return 0
}

// writeReportFile renders the report into the file named by ReportFile.
// File reports never carry terminal styling.
func (c *CompareCmd) writeReportFile(rep report.Report) int {
	var buf bytes.Buffer
	renderer := report.NewRenderer(c.Format, false)
	if err := renderer.Render(&buf, rep); err != nil {
		c.logger().Error("failed to render report", "error", err)
		return 1
	}
	if err := afero.WriteFile(c.Fs, c.ReportFile, buf.Bytes(), 0o644); err != nil {
		c.logger().Error("failed to write report file", "path", c.ReportFile, "error", err)
		return 1
	}
	c.logger().Info("report saved", "path", c.ReportFile)
	return 0
}

func (c *CompareCmd) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// compileFilter compiles an optional path filter; empty means no filter.
func compileFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}
