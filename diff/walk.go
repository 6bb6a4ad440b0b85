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
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// collectFiles returns the set of slash-separated paths, relative to root,
// that resolve to regular files. Symlinks are followed one level for the
// type test; broken links are skipped. When recursive is false only the
// top level of root is listed.
func (c *Comparator) collectFiles(root string, recursive bool) (map[string]struct{}, error) {
	files := make(map[string]struct{})

	if !recursive {
		entries, err := afero.ReadDir(c.Fs, root)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if c.isRegularFile(filepath.Join(root, entry.Name()), entry) {
				files[entry.Name()] = struct{}{}
			}
		}
		return files, nil
	}

	walkErr := afero.Walk(c.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries surface per file at lookup time and
			// never abort the walk.
			c.logger().Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}
		if !c.isRegularFile(path, info) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = struct{}{}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}

// isRegularFile reports whether the entry is a regular file. A symlink is
// resolved to its destination first; a link that cannot be resolved is not
// a regular file.
func (c *Comparator) isRegularFile(path string, info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := c.Fs.Stat(path)
		if err != nil {
			c.logger().Debug("skipping unresolvable symlink", "path", path, "error", err)
			return false
		}
		return resolved.Mode().IsRegular()
	}
	return info.Mode().IsRegular()
}
