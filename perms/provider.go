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

package perms

import (
	"log/slog"
	"os"
	"os/user"
	"strconv"

	"github.com/spf13/afero"
)

// Provider resolves a filesystem path to a permission snapshot. Lookup never
// fails: missing or unreadable paths come back as the inaccessible sentinel
// so that the caller can feed them into ordinary diff logic.
type Provider interface {
	Lookup(path string, ignoreOwnership bool) Snapshot
}

// StatProvider is the default Provider, backed by an afero filesystem and
// the platform identity database. The function fields exist so tests can
// inject fake identities for filesystems whose Stat results carry none.
type StatProvider struct {
	Fs  afero.Fs
	Log *slog.Logger

	// SysIDs extracts numeric uid/gid from a stat result.
	SysIDs func(os.FileInfo) (uid, gid uint32, ok bool)
	// LookupUser resolves a numeric uid string to a user name.
	LookupUser func(uid string) (string, error)
	// LookupGroup resolves a numeric gid string to a group name.
	LookupGroup func(gid string) (string, error)
}

// NewStatProvider returns a StatProvider with the platform defaults wired in.
func NewStatProvider(fs afero.Fs, log *slog.Logger) *StatProvider {
	return &StatProvider{
		Fs:     fs,
		Log:    log,
		SysIDs: FileIDs,
		LookupUser: func(uid string) (string, error) {
			u, err := user.LookupId(uid)
			if err != nil {
				return "", err
			}
			return u.Username, nil
		},
		LookupGroup: func(gid string) (string, error) {
			g, err := user.LookupGroupId(gid)
			if err != nil {
				return "", err
			}
			return g.Name, nil
		},
	}
}

// Lookup stats path and builds its snapshot. Stat follows symlinks, so a
// link is reported with its target's metadata. With ignoreOwnership only the
// mode is captured and owner/group are left out of comparison entirely.
func (p *StatProvider) Lookup(path string, ignoreOwnership bool) Snapshot {
	fi, err := p.Fs.Stat(path)
	if err != nil {
		reason := ReasonNotFound
		switch {
		case os.IsNotExist(err):
			reason = ReasonNotFound
		case os.IsPermission(err):
			reason = ReasonDenied
		default:
			reason = err.Error()
		}
		p.logger().Debug("path inaccessible", "path", path, "reason", reason)
		return Inaccessible(reason)
	}

	snap := Snapshot{Mode: FileModeString(fi.Mode())}
	if ignoreOwnership {
		return snap
	}

	uid, gid, ok := p.SysIDs(fi)
	if !ok {
		// No unix identity on this stat result (in-memory fs, foreign
		// platform). Leave ownership out rather than inventing ids.
		p.logger().Debug("ownership information unavailable", "path", path)
		return snap
	}

	uidStr := strconv.FormatUint(uint64(uid), 10)
	gidStr := strconv.FormatUint(uint64(gid), 10)

	if name, err := p.LookupUser(uidStr); err == nil {
		snap.Owner = name
	} else {
		snap.Owner = uidStr
		p.logger().Warn("user id not found, using numeric id", "path", path, "uid", uidStr)
	}
	if name, err := p.LookupGroup(gidStr); err == nil {
		snap.Group = name
	} else {
		snap.Group = gidStr
		p.logger().Warn("group id not found, using numeric id", "path", path, "gid", gidStr)
	}

	return snap
}

func (p *StatProvider) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}
