//go:build !windows
// +build !windows

package commands

import "os"

// IsElevated reports whether the process is running as root.
func IsElevated() (bool, error) {
	return os.Geteuid() == 0, nil
}
