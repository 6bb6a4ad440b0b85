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
	"fmt"
	"io/fs"
)

// FileModeString renders mode as the fixed 10-character string printed by
// ls -l: one type character followed by three rwx triplets. Unlike
// fs.FileMode.String, setuid/setgid/sticky are folded into the execute
// positions (s/S, t/T), which is the form admins recognise from ls output
// and the form the snapshots are compared by.
func FileModeString(mode fs.FileMode) string {
	var buf [10]byte
	buf[0] = typeChar(mode)

	const rwx = "rwxrwxrwx"
	perm := mode.Perm()
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			buf[i+1] = rwx[i]
		} else {
			buf[i+1] = '-'
		}
	}

	// Fold the special bits into the corresponding execute slot.
	if mode&fs.ModeSetuid != 0 {
		buf[3] = setBitChar(buf[3])
	}
	if mode&fs.ModeSetgid != 0 {
		buf[6] = setBitChar(buf[6])
	}
	if mode&fs.ModeSticky != 0 {
		if buf[9] == 'x' {
			buf[9] = 't'
		} else {
			buf[9] = 'T'
		}
	}

	return string(buf[:])
}

// ParseFileMode converts an ls -l style mode string back into the mode bits
// FileModeString rendered it from. Only regular file modes are accepted:
// aligning a directory or device mode onto a file is never meaningful.
func ParseFileMode(s string) (fs.FileMode, error) {
	if len(s) != 10 {
		return 0, fmt.Errorf("mode string %q is not 10 characters", s)
	}
	if s[0] != '-' {
		return 0, fmt.Errorf("mode string %q is not a regular file mode", s)
	}

	const rwx = "rwxrwxrwx"
	var mode fs.FileMode
	for i := 0; i < 9; i++ {
		c := s[i+1]
		bit := fs.FileMode(1 << uint(8-i))
		switch {
		case c == rwx[i]:
			mode |= bit
		case c == '-':
		case i == 2 && (c == 's' || c == 'S'):
			mode |= fs.ModeSetuid
			if c == 's' {
				mode |= bit
			}
		case i == 5 && (c == 's' || c == 'S'):
			mode |= fs.ModeSetgid
			if c == 's' {
				mode |= bit
			}
		case i == 8 && (c == 't' || c == 'T'):
			mode |= fs.ModeSticky
			if c == 't' {
				mode |= bit
			}
		default:
			return 0, fmt.Errorf("unexpected character %q in mode string %q", c, s)
		}
	}
	return mode, nil
}

func typeChar(mode fs.FileMode) byte {
	switch {
	case mode&fs.ModeSymlink != 0:
		return 'l'
	case mode&fs.ModeSocket != 0:
		return 's'
	case mode&fs.ModeDir != 0:
		return 'd'
	case mode&fs.ModeCharDevice != 0:
		return 'c'
	case mode&fs.ModeDevice != 0:
		return 'b'
	case mode&fs.ModeNamedPipe != 0:
		return 'p'
	case mode&fs.ModeIrregular != 0:
		return '?'
	default:
		return '-'
	}
}

func setBitChar(execChar byte) byte {
	if execChar == 'x' {
		return 's'
	}
	return 'S'
}
