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

package diff

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"golang.org/x/exp/maps"

	"github.com/permdiff/permdiff/perms"
)

// Options control a comparison run.
type Options struct {
	// Recursive walks the full tree under each root instead of only the
	// top level.
	Recursive bool
	// IgnoreOwnership restricts the comparison to mode strings.
	IgnoreOwnership bool
	// Include keeps only relative paths matching the pattern. Nil matches
	// everything.
	Include *regexp.Regexp
	// Exclude drops relative paths matching the pattern. Nil drops nothing.
	Exclude *regexp.Regexp
}

// matches applies the include and exclude filters to a relative path.
func (o Options) matches(rel string) bool {
	if o.Include != nil && !o.Include.MatchString(rel) {
		return false
	}
	if o.Exclude != nil && o.Exclude.MatchString(rel) {
		return false
	}
	return true
}

// Comparator enumerates regular files under two roots and reports per-path
// permission differences.
type Comparator struct {
	Fs       afero.Fs
	Provider perms.Provider
	Log      *slog.Logger
}

// NewComparator creates a Comparator backed by a StatProvider on the given
// filesystem.
func NewComparator(fsys afero.Fs, log *slog.Logger) *Comparator {
	return &Comparator{
		Fs:       fsys,
		Provider: perms.NewStatProvider(fsys, log),
		Log:      log,
	}
}

// Compare validates both roots, enumerates the regular files beneath them
// and returns one Discrepancy per relative path whose snapshots differ.
// A path present on only one side compares against the inaccessible
// sentinel and is always reported. Result order is unspecified.
//
// Per-path lookup failures degrade to sentinel snapshots; only root-level
// validation failures return an error, and then with no results.
func (c *Comparator) Compare(root1, root2 string, opts Options) ([]Discrepancy, error) {
	if err := c.validateRoot(root1); err != nil {
		return nil, err
	}
	if err := c.validateRoot(root2); err != nil {
		return nil, err
	}

	sourceFiles, err := c.collectFiles(root1, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root1, err)
	}
	targetFiles, err := c.collectFiles(root2, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root2, err)
	}

	union := make(map[string]struct{}, len(sourceFiles)+len(targetFiles))
	for rel := range sourceFiles {
		union[rel] = struct{}{}
	}
	for rel := range targetFiles {
		union[rel] = struct{}{}
	}

	c.logger().Debug("comparing trees",
		"root1", root1, "root2", root2, "paths", len(union))

	var results []Discrepancy
	for _, rel := range maps.Keys(union) {
		if !opts.matches(rel) {
			continue
		}
		source := c.Provider.Lookup(filepath.Join(root1, filepath.FromSlash(rel)), opts.IgnoreOwnership)
		target := c.Provider.Lookup(filepath.Join(root2, filepath.FromSlash(rel)), opts.IgnoreOwnership)
		if !source.Equal(target) {
			results = append(results, Discrepancy{Path: rel, Source: source, Target: target})
		}
	}
	return results, nil
}

// validateRoot checks that root exists and is a directory.
func (c *Comparator) validateRoot(root string) error {
	info, err := c.Fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	return nil
}

func (c *Comparator) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}
