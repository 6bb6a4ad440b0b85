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
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/afero"

	"github.com/permdiff/permdiff/diff"
	"github.com/permdiff/permdiff/logging"
	"github.com/permdiff/permdiff/perms"
)

// ConfirmPrompt asks the user for confirmation before applying fixes.
// Tests can override this to avoid interactive prompts.
var ConfirmPrompt = func(prompt string) (bool, error) {
	fmt.Print(prompt)
	r := bufio.NewReader(os.Stdin)
	s, err := r.ReadString('\n')
	if err != nil {
		return false, err
	}
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "y" || s == "yes", nil
}

// IsElevatedFunc is a testable indirection for elevation checks. By default
// it points to the platform-specific IsElevated implementation but tests may
// override it.
var IsElevatedFunc = IsElevated

// PermOps abstracts the mutations fix applies, so tests can observe them
// without touching a real filesystem.
type PermOps interface {
	Chmod(path string, perm fs.FileMode) error
	Chown(path string, owner string, group string) error
}

// OsPermOps applies changes through an afero.Fs, resolving owner and group
// names with os/user. Names that fail to resolve are retried as numeric ids,
// the form snapshots fall back to when a name is unknown.
type OsPermOps struct {
	Fs afero.Fs
}

func (o *OsPermOps) Chmod(path string, perm fs.FileMode) error {
	return o.Fs.Chmod(path, perm)
}

func (o *OsPermOps) Chown(path string, owner string, group string) error {
	if owner == "" && group == "" {
		return nil
	}
	// POSIX chown has no Windows equivalent here.
	if isWindows() {
		return nil
	}

	uid := -1
	gid := -1
	if owner != "" {
		id, err := resolveID(owner, func(name string) (string, error) {
			u, err := user.Lookup(name)
			if err != nil {
				return "", err
			}
			return u.Uid, nil
		})
		if err != nil {
			return err
		}
		uid = id
	}
	if group != "" {
		id, err := resolveID(group, func(name string) (string, error) {
			g, err := user.LookupGroup(name)
			if err != nil {
				return "", err
			}
			return g.Gid, nil
		})
		if err != nil {
			return err
		}
		gid = id
	}
	return o.Fs.Chown(path, uid, gid)
}

// resolveID turns an owner or group field into a numeric id, trying a name
// lookup first and falling back to parsing the field as a number.
func resolveID(name string, lookup func(string) (string, error)) (int, error) {
	idStr, err := lookup(name)
	if err != nil {
		if id, convErr := strconv.Atoi(name); convErr == nil {
			return id, nil
		}
		return 0, err
	}
	id, err := strconv.ParseInt(idStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// FixCmd aligns the second tree's permission metadata with the first: for
// every discrepancy whose first-tree side is a readable regular file and
// whose second-tree side exists, it chmods (and chowns, unless ownership is
// ignored) the second tree's path.
type FixCmd struct {
	Fs  afero.Fs
	Out io.Writer
	Log *slog.Logger
	Ops PermOps

	Root1 string
	Root2 string

	Recursive       bool
	IgnoreOwnership bool
	Include         string
	Exclude         string
	DryRun          bool
	Yes             bool
}

// NewFixCmd creates a FixCmd with default settings.
func NewFixCmd(out io.Writer, log *slog.Logger, root1, root2 string) *FixCmd {
	fsys := afero.NewOsFs()
	return &FixCmd{
		Fs:    fsys,
		Out:   out,
		Log:   log,
		Ops:   &OsPermOps{Fs: fsys},
		Root1: root1,
		Root2: root2,
	}
}

// fixAction is one planned mutation, kept alongside its display line so the
// plan shown to the user is exactly what executes.
type fixAction struct {
	path  string
	line  string
	chown bool
	run   func(ops PermOps) error
}

// Run executes the fix flow and returns the process exit code: plan, show,
// confirm (unless --yes or --dry-run), then apply. Per-path failures are
// collected rather than aborting; any failure exits 1.
func (f *FixCmd) Run() int {
	include, err := compileFilter(f.Include)
	if err != nil {
		f.logger().Error("invalid include pattern", "pattern", f.Include, "error", err)
		return 1
	}
	exclude, err := compileFilter(f.Exclude)
	if err != nil {
		f.logger().Error("invalid exclude pattern", "pattern", f.Exclude, "error", err)
		return 1
	}

	root1, err := filepath.Abs(f.Root1)
	if err != nil {
		f.logger().Error("cannot resolve directory", "path", f.Root1, "error", err)
		return 1
	}
	root2, err := filepath.Abs(f.Root2)
	if err != nil {
		f.logger().Error("cannot resolve directory", "path", f.Root2, "error", err)
		return 1
	}

	comparator := diff.NewComparator(f.Fs, f.Log)
	results, err := comparator.Compare(root1, root2, diff.Options{
		Recursive:       f.Recursive,
		IgnoreOwnership: f.IgnoreOwnership,
		Include:         include,
		Exclude:         exclude,
	})
	if err != nil {
		if errors.Is(err, diff.ErrRootNotFound) || errors.Is(err, diff.ErrNotDirectory) {
			f.logger().Error("cannot compare directories", "error", err)
		} else {
			logging.Critical(f.logger(), "comparison failed", "error", err)
		}
		return 1
	}

	if len(results) == 0 {
		fmt.Fprintln(f.Out, "No permission differences found; nothing to fix.")
		return 0
	}

	plan := f.buildPlan(results, root2)
	if len(plan) == 0 {
		fmt.Fprintln(f.Out, "No fixable differences (sources unreadable or targets missing).")
		return 0
	}

	if f.DryRun {
		for _, action := range plan {
			fmt.Fprintln(f.Out, "Action:", action.line)
		}
		fmt.Fprintln(f.Out, "dry-run complete")
		return 0
	}

	if planNeedsChown(plan) {
		elevated, err := IsElevatedFunc()
		if err != nil {
			f.logger().Error("failed to determine elevation", "error", err)
			return 1
		}
		if !elevated {
			f.logger().Warn("ownership changes usually require elevated privileges")
		}
	}

	if !f.Yes {
		fmt.Fprintln(f.Out, "Planned actions:")
		for _, action := range plan {
			fmt.Fprintln(f.Out, "  -", action.line)
		}
		ok, err := ConfirmPrompt("Apply these changes? [y/N]: ")
		if err != nil {
			f.logger().Error("failed to read confirmation", "error", err)
			return 1
		}
		if !ok {
			fmt.Fprintln(f.Out, "aborted by user")
			return 1
		}
	}

	errorsFound := 0
	for _, action := range plan {
		if err := action.run(f.Ops); err != nil {
			f.logger().Error("failed to apply fix", "path", action.path, "error", err)
			errorsFound++
		}
	}
	if errorsFound > 0 {
		fmt.Fprintf(f.Out, "fix completed with %d errors\n", errorsFound)
		return 1
	}
	fmt.Fprintln(f.Out, "fix completed successfully")
	return 0
}

// buildPlan turns discrepancies into concrete actions against root2, in
// path order. Entries whose source side is unreadable or not a regular
// file, or whose target side is missing, cannot be aligned and are skipped.
func (f *FixCmd) buildPlan(results []diff.Discrepancy, root2 string) []fixAction {
	sorted := slices.Clone(results)
	diff.SortByPath(sorted)

	var plan []fixAction
	for _, d := range sorted {
		if !d.Source.Accessible() {
			f.logger().Debug("skipping path with unreadable source", "path", d.Path)
			continue
		}
		if !d.Target.Accessible() {
			f.logger().Debug("skipping path missing from target tree", "path", d.Path)
			continue
		}
		mode, err := perms.ParseFileMode(d.Source.Mode)
		if err != nil {
			f.logger().Debug("skipping path whose source is not a regular file",
				"path", d.Path, "mode", d.Source.Mode)
			continue
		}

		target := filepath.Join(root2, filepath.FromSlash(d.Path))

		if d.Source.Mode != d.Target.Mode {
			plan = append(plan, fixAction{
				path: d.Path,
				line: shellquote.Join("chmod", octalMode(mode), target),
				run: func(ops PermOps) error {
					return ops.Chmod(target, mode)
				},
			})
		}
		if d.Source.Owner != d.Target.Owner || d.Source.Group != d.Target.Group {
			owner, group := d.Source.Owner, d.Source.Group
			if owner == "" && group == "" {
				continue
			}
			plan = append(plan, fixAction{
				path:  d.Path,
				line:  shellquote.Join("chown", chownSpec(owner, group), target),
				chown: true,
				run: func(ops PermOps) error {
					return ops.Chown(target, owner, group)
				},
			})
		}
	}
	return plan
}

func planNeedsChown(plan []fixAction) bool {
	for _, action := range plan {
		if action.chown {
			return true
		}
	}
	return false
}

// octalMode renders mode as the 4-digit octal argument chmod takes.
func octalMode(mode fs.FileMode) string {
	v := uint32(mode.Perm())
	if mode&fs.ModeSetuid != 0 {
		v |= 0o4000
	}
	if mode&fs.ModeSetgid != 0 {
		v |= 0o2000
	}
	if mode&fs.ModeSticky != 0 {
		v |= 0o1000
	}
	return fmt.Sprintf("%04o", v)
}

// chownSpec renders the OWNER:GROUP argument chown takes, omitting whichever
// side is absent.
func chownSpec(owner, group string) string {
	if group == "" {
		return owner
	}
	return owner + ":" + group
}

func (f *FixCmd) logger() *slog.Logger {
	if f.Log != nil {
		return f.Log
	}
	return slog.Default()
}
