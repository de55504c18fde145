package rollback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gnoviawan/termul-sub001/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, retention int) (*Service, *storage.Store) {
	t.Helper()
	store := storage.New(t.TempDir(), nil)
	return NewService(store, retention, nil), store
}

func TestKeepPreviousVersionWritesMarker(t *testing.T) {
	s, _ := newTestService(t, 3)

	require.NoError(t, s.KeepPreviousVersion("1.2.3"))

	dir := s.VersionDir("1.2.3")
	require.DirExists(t, dir)

	var m marker
	data, err := os.ReadFile(filepath.Join(dir, markerName))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, runtime.GOOS, m.Platform)
	assert.Equal(t, runtime.GOARCH, m.Arch)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1.2.3", list[0].Version)
	assert.Equal(t, dir, list[0].Path)
	assert.Greater(t, list[0].SizeBytes, int64(0))
}

func TestKeepPreviousVersionRejectsInvalid(t *testing.T) {
	s, _ := newTestService(t, 3)

	for _, v := range []string{
		"",
		"1.0",
		"not-a-version",
		"../../etc",
		"1.0.0/..",
		"1.0.0 ",
	} {
		assert.ErrorIs(t, s.KeepPreviousVersion(v), ErrInvalidVersion, "version %q", v)
	}
}

func TestRetentionEvictsOldest(t *testing.T) {
	s, _ := newTestService(t, 3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.KeepPreviousVersion(fmt.Sprintf("1.0.%d", i)))
	}

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "1.0.5", list[0].Version)
	assert.Equal(t, "1.0.4", list[1].Version)
	assert.Equal(t, "1.0.3", list[2].Version)

	for _, m := range list {
		assert.DirExists(t, m.Path)
	}
	assert.NoDirExists(t, s.VersionDir("1.0.1"))
	assert.NoDirExists(t, s.VersionDir("1.0.2"))
}

func TestKeepSameVersionTwiceReplacesEntry(t *testing.T) {
	s, _ := newTestService(t, 3)

	require.NoError(t, s.KeepPreviousVersion("1.0.0"))
	require.NoError(t, s.KeepPreviousVersion("1.0.0"))

	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInstallRollback(t *testing.T) {
	s, _ := newTestService(t, 3)
	require.NoError(t, s.KeepPreviousVersion("2.0.0"))

	require.NoError(t, s.InstallRollback("2.0.0"))

	p, err := s.CheckPendingRollback()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "2.0.0", p.TargetVersion)
	assert.Equal(t, s.VersionDir("2.0.0"), p.SourcePath)
	assert.False(t, p.RequestedAt.IsZero())

	require.NoError(t, s.ClearPendingRollback())
	p, err = s.CheckPendingRollback()
	require.NoError(t, err)
	assert.Nil(t, p)

	// Clearing again is fine.
	require.NoError(t, s.ClearPendingRollback())
}

func TestInstallRollbackUnknownVersion(t *testing.T) {
	s, _ := newTestService(t, 3)
	assert.ErrorIs(t, s.InstallRollback("9.9.9"), ErrVersionNotFound)
}

func TestInstallRollbackSelfHealsStaleMetadata(t *testing.T) {
	s, _ := newTestService(t, 3)
	require.NoError(t, s.KeepPreviousVersion("1.0.0"))

	// The preserved directory vanished out from under the metadata.
	require.NoError(t, os.RemoveAll(s.VersionDir("1.0.0")))

	assert.ErrorIs(t, s.InstallRollback("1.0.0"), ErrVersionNotFound)

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list, "stale entry is purged")
}
