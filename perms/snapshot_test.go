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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Snapshot
		want bool
	}{
		{
			name: "identical full snapshots",
			a:    Snapshot{Mode: "-rw-r--r--", Owner: "alice", Group: "staff"},
			b:    Snapshot{Mode: "-rw-r--r--", Owner: "alice", Group: "staff"},
			want: true,
		},
		{
			name: "differing mode",
			a:    Snapshot{Mode: "-rw-r--r--", Owner: "alice", Group: "staff"},
			b:    Snapshot{Mode: "-rw-rw-r--", Owner: "alice", Group: "staff"},
			want: false,
		},
		{
			name: "differing group only",
			a:    Snapshot{Mode: "-rw-r--r--", Owner: "alice", Group: "staff"},
			b:    Snapshot{Mode: "-rw-r--r--", Owner: "alice", Group: "wheel"},
			want: false,
		},
		{
			name: "present vs inaccessible",
			a:    Snapshot{Mode: "-rw-r--r--"},
			b:    Inaccessible(ReasonNotFound),
			want: false,
		},
		{
			name: "both inaccessible, different reasons",
			a:    Inaccessible(ReasonNotFound),
			b:    Inaccessible(ReasonDenied),
			want: true,
		},
		{
			name: "mode-only snapshots",
			a:    Snapshot{Mode: "-rwxr-xr-x"},
			b:    Snapshot{Mode: "-rwxr-xr-x"},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestSnapshotString(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{
			name: "full snapshot",
			snap: Snapshot{Mode: "-rw-r--r--", Owner: "alice", Group: "staff"},
			want: "mode=-rw-r--r-- owner=alice group=staff",
		},
		{
			name: "mode only",
			snap: Snapshot{Mode: "-rw-r--r--"},
			want: "mode=-rw-r--r--",
		},
		{
			name: "numeric fallback ids",
			snap: Snapshot{Mode: "-rw-------", Owner: "1042", Group: "1042"},
			want: "mode=-rw------- owner=1042 group=1042",
		},
		{
			name: "inaccessible with reason",
			snap: Inaccessible(ReasonNotFound),
			want: "(inaccessible: not found)",
		},
		{
			name: "inaccessible without reason",
			snap: Snapshot{},
			want: "(inaccessible)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snap.String())
		})
	}
}

func TestSnapshotAccessible(t *testing.T) {
	assert.True(t, Snapshot{Mode: "-rw-r--r--"}.Accessible())
	assert.False(t, Snapshot{}.Accessible())
	assert.False(t, Inaccessible(ReasonDenied).Accessible())
}
