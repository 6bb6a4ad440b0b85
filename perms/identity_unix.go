//go:build !windows
// +build !windows

package perms

import (
	"os"
	"syscall"
)

// FileIDs extracts the numeric uid/gid from a stat result. ok is false when
// the FileInfo carries no unix identity information, e.g. for in-memory
// filesystems used in tests.
func FileIDs(fi os.FileInfo) (uid, gid uint32, ok bool) {
	statT, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return statT.Uid, statT.Gid, true
}
