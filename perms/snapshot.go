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

// Reasons recorded on inaccessible snapshots.
const (
	ReasonNotFound = "not found"
	ReasonDenied   = "permission denied"
)

// Snapshot is the permission-relevant metadata captured for one path at
// comparison time. The zero value (empty Mode) is the inaccessible sentinel
// meaning the path was missing or could not be read on that side.
type Snapshot struct {
	// Mode is the ls -l style 10-character permission string,
	// e.g. "-rw-r--r--". Empty when the path was inaccessible.
	Mode string
	// Owner is the resolved user name, or the numeric uid as a string when
	// no name could be resolved. Empty when ownership was not captured.
	Owner string
	// Group is the resolved group name, with the same numeric fallback.
	Group string
	// Reason records why the path could not be read (ReasonNotFound,
	// ReasonDenied, or an error string). It is informational only: Equal
	// ignores it so that two sides that are both unreadable compare as
	// identical, whatever the cause on each side.
	Reason string
}

// Inaccessible returns the sentinel snapshot for a path that could not be
// read, carrying the reason for display.
func Inaccessible(reason string) Snapshot {
	return Snapshot{Reason: reason}
}

// Accessible reports whether the snapshot holds real metadata.
func (s Snapshot) Accessible() bool {
	return s.Mode != ""
}

// Equal compares the mode, owner and group fields. Reason is excluded, so
// present-vs-inaccessible is always unequal and inaccessible-vs-inaccessible
// is always equal.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Mode == other.Mode && s.Owner == other.Owner && s.Group == other.Group
}

// String returns a human-readable summary of the snapshot.
func (s Snapshot) String() string {
	if !s.Accessible() {
		if s.Reason == "" {
			return "(inaccessible)"
		}
		return "(inaccessible: " + s.Reason + ")"
	}
	out := "mode=" + s.Mode
	if s.Owner != "" {
		out += " owner=" + s.Owner
	}
	if s.Group != "" {
		out += " group=" + s.Group
	}
	return out
}
