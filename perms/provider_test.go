package perms

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// statDeniedFs wraps a filesystem and fails every Stat with EACCES, to
// exercise the permission-denied sentinel path.
type statDeniedFs struct {
	afero.Fs
}

func (s *statDeniedFs) Stat(name string) (os.FileInfo, error) {
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrPermission}
}

// fakeIDs returns an injectable SysIDs function reporting fixed ids.
func fakeIDs(uid, gid uint32) func(os.FileInfo) (uint32, uint32, bool) {
	return func(os.FileInfo) (uint32, uint32, bool) {
		return uid, gid, true
	}
}

func TestStatProviderModeString(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/conf", []byte("x"), 0o644))
	require.NoError(t, fs.Chmod("/data/conf", 0o640))

	p := NewStatProvider(fs, nil)
	snap := p.Lookup("/data/conf", true)
	require.True(t, snap.Accessible())
	require.Equal(t, "-rw-r-----", snap.Mode)
	require.Empty(t, snap.Owner)
	require.Empty(t, snap.Group)
}

func TestStatProviderNotFound(t *testing.T) {
	p := NewStatProvider(afero.NewMemMapFs(), nil)
	snap := p.Lookup("/missing", false)
	require.False(t, snap.Accessible())
	require.Equal(t, ReasonNotFound, snap.Reason)
}

func TestStatProviderPermissionDenied(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/secret", []byte("x"), 0o600))

	p := NewStatProvider(&statDeniedFs{Fs: base}, nil)
	snap := p.Lookup("/secret", false)
	require.False(t, snap.Accessible())
	require.Equal(t, ReasonDenied, snap.Reason)
}

func TestStatProviderResolvesNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/conf", []byte("x"), 0o644))

	p := NewStatProvider(fs, nil)
	p.SysIDs = fakeIDs(1000, 1000)
	p.LookupUser = func(uid string) (string, error) { return "alice", nil }
	p.LookupGroup = func(gid string) (string, error) { return "staff", nil }

	snap := p.Lookup("/etc/conf", false)
	require.Equal(t, "alice", snap.Owner)
	require.Equal(t, "staff", snap.Group)
}

func TestStatProviderNumericFallback(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/conf", []byte("x"), 0o644))

	p := NewStatProvider(fs, nil)
	p.SysIDs = fakeIDs(1042, 2042)
	p.LookupUser = func(uid string) (string, error) { return "", errors.New("unknown userid") }
	p.LookupGroup = func(gid string) (string, error) { return "", errors.New("unknown groupid") }

	snap := p.Lookup("/etc/conf", false)
	require.True(t, snap.Accessible())
	require.Equal(t, "1042", snap.Owner)
	require.Equal(t, "2042", snap.Group)
}

func TestStatProviderIdentityUnavailable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/conf", []byte("x"), 0o644))

	// MemMapFs stat results carry no unix ids, so the default SysIDs
	// reports none and ownership stays empty.
	p := NewStatProvider(fs, nil)
	snap := p.Lookup("/etc/conf", false)
	require.True(t, snap.Accessible())
	require.Empty(t, snap.Owner)
	require.Empty(t, snap.Group)
}

func TestStatProviderIgnoreOwnershipSkipsLookups(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/conf", []byte("x"), 0o644))

	p := NewStatProvider(fs, nil)
	p.SysIDs = fakeIDs(0, 0)
	p.LookupUser = func(uid string) (string, error) {
		t.Fatal("LookupUser called with ignoreOwnership set")
		return "", nil
	}
	p.LookupGroup = func(gid string) (string, error) {
		t.Fatal("LookupGroup called with ignoreOwnership set")
		return "", nil
	}

	snap := p.Lookup("/etc/conf", true)
	require.True(t, snap.Accessible())
	require.Empty(t, snap.Owner)
	require.Empty(t, snap.Group)
}

func TestStatProviderDirectorySnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/srv/www", 0o755))
	require.NoError(t, fs.Chmod("/srv/www", 0o755))

	p := NewStatProvider(fs, nil)
	snap := p.Lookup("/srv/www", true)
	require.True(t, snap.Accessible())
	require.Equal(t, "drwxr-xr-x", snap.Mode)
}
