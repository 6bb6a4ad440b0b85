package commands

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// runRoot executes the command tree against an in-memory filesystem,
// returning the command output, the log output and the execution error.
func runRoot(t *testing.T, fsys afero.Fs, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("PERMDIFF_CONFIG", "")

	DefaultFs = fsys
	defer func() { DefaultFs = nil }()

	logBuf := &bytes.Buffer{}
	LogOutput = logBuf
	defer func() { LogOutput = nil }()

	out := &bytes.Buffer{}
	rootCmd := NewRootCmd()
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), logBuf.String(), err
}

func TestRootCmdRequiresTwoArgs(t *testing.T) {
	_, _, err := runRoot(t, afero.NewMemMapFs(), "/only")
	require.Error(t, err)
	require.Contains(t, err.Error(), "2 arg")
}

func TestRootCmdComparesTrees(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{"conf": 0o600})
	seedTree(t, fsys, "/b", map[string]os.FileMode{"conf": 0o644})

	out, logOut, err := runRoot(t, fsys, "/a", "/b")
	require.NoError(t, err)
	require.Contains(t, out, "File: conf")
	require.Contains(t, out, "mode=-rw-------")
	require.Contains(t, out, "mode=-rw-r--r--")
	require.Contains(t, logOut, "comparison complete")
}

func TestRootCmdMissingRootFailsQuietly(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{"conf": 0o644})

	out, logOut, err := runRoot(t, fsys, "/a", "/missing")
	require.ErrorIs(t, err, errAlreadyReported)
	require.Empty(t, out, "the failure is logged, not printed twice")
	require.Contains(t, logOut, "cannot compare directories")
}

func TestRootCmdRecursiveFlag(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{"sub/nested.txt": 0o600})
	seedTree(t, fsys, "/b", map[string]os.FileMode{"sub/nested.txt": 0o644})

	out, _, err := runRoot(t, fsys, "/a", "/b")
	require.NoError(t, err)
	require.Contains(t, out, "No permission differences found.")

	out, _, err = runRoot(t, fsys, "-r", "/a", "/b")
	require.NoError(t, err)
	require.Contains(t, out, "sub/nested.txt")
}

func TestRootCmdConfigFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{"sub/nested.txt": 0o600})
	seedTree(t, fsys, "/b", map[string]os.FileMode{"sub/nested.txt": 0o644})
	require.NoError(t, afero.WriteFile(fsys, "/etc/permdiff.yml",
		[]byte("recursive: true\noutput_format: rich\n"), 0o644))

	out, _, err := runRoot(t, fsys, "/a", "/b", "--config", "/etc/permdiff.yml")
	require.NoError(t, err)
	require.Contains(t, out, "sub/nested.txt", "recursive comes from the config file")
	require.Contains(t, out, "1 differing paths", "rich format comes from the config file")
}

func TestRootCmdFlagOverridesConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{
		"top.txt":        0o600,
		"sub/nested.txt": 0o600,
	})
	seedTree(t, fsys, "/b", map[string]os.FileMode{
		"top.txt":        0o644,
		"sub/nested.txt": 0o644,
	})
	require.NoError(t, afero.WriteFile(fsys, "/etc/permdiff.yml",
		[]byte("recursive: true\n"), 0o644))

	out, _, err := runRoot(t, fsys, "/a", "/b",
		"--config", "/etc/permdiff.yml", "--recursive=false")
	require.NoError(t, err)
	require.Contains(t, out, "top.txt")
	require.NotContains(t, out, "nested.txt", "explicit flags beat config values")
}

func TestRootCmdBadConfigValueWarns(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{"conf": 0o644})
	seedTree(t, fsys, "/b", map[string]os.FileMode{"conf": 0o644})
	require.NoError(t, afero.WriteFile(fsys, "/etc/permdiff.yml",
		[]byte("output_format: banana\n"), 0o644))

	_, logOut, err := runRoot(t, fsys, "/a", "/b", "--config", "/etc/permdiff.yml")
	require.NoError(t, err, "a bad config value falls back to the default")
	require.Contains(t, logOut, "config output_format ignored")
}

func TestRootCmdMissingConfigFileFails(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{"conf": 0o644})
	seedTree(t, fsys, "/b", map[string]os.FileMode{"conf": 0o644})

	_, _, err := runRoot(t, fsys, "/a", "/b", "--config", "/nope.yml")
	require.Error(t, err)
	require.NotErrorIs(t, err, errAlreadyReported)
	require.Contains(t, err.Error(), "config file not found")
}

func TestRootCmdRejectsUnknownFormat(t *testing.T) {
	_, _, err := runRoot(t, afero.NewMemMapFs(), "/a", "/b", "--output-format", "banana")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--output-format")
}

func TestRootCmdFixDryRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{"conf": 0o600})
	seedTree(t, fsys, "/b", map[string]os.FileMode{"conf": 0o644})

	out, _, err := runRoot(t, fsys, "fix", "/a", "/b", "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, "Action: chmod 0600 /b/conf")
	require.Contains(t, out, "dry-run complete")

	info, err := fsys.Stat("/b/conf")
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestRootCmdLogLevelFlag(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedTree(t, fsys, "/a", map[string]os.FileMode{"conf": 0o644})
	seedTree(t, fsys, "/b", map[string]os.FileMode{"conf": 0o644})

	_, logOut, err := runRoot(t, fsys, "/a", "/b", "--log-level", "error")
	require.NoError(t, err)
	require.NotContains(t, logOut, "comparison complete", "info records are filtered out")

	_, logOut, err = runRoot(t, fsys, "/a", "/b", "--log-level", "debug")
	require.NoError(t, err)
	require.Contains(t, logOut, "comparing trees")
}
