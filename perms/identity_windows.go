//go:build windows
// +build windows

package perms

import "os"

// FileIDs is a stub on Windows: stat results carry no unix uid/gid, so
// ownership is omitted from snapshots rather than being misreported.
func FileIDs(fi os.FileInfo) (uid, gid uint32, ok bool) {
	return 0, 0, false
}
