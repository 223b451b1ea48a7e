package platform

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"
)

// TestResolvePicksRangeByVersion checks that the version ranges select the
// node-webkit era files below 0.12.0 and the nw.js era files from 0.12.0 on.
func TestResolvePicksRangeByVersion(t *testing.T) {
	t.Parallel()

	states, err := Default().Select([]string{"win"})
	require.NoError(t, err)
	require.Len(t, states, 1)

	d := states[0].Descriptor

	entry, ok := d.Resolve(semver.MustParse("0.11.6"))
	require.True(t, ok)
	require.Equal(t, "node-webkit.exe", entry.Files[0])
	require.Equal(t, "node-webkit-v0.11.6-win-ia32.zip", entry.ArchiveName("0.11.6"))

	entry, ok = d.Resolve(semver.MustParse("0.12.0"))
	require.True(t, ok)
	require.Equal(t, "nw.exe", entry.Files[0])
	require.Equal(t, "nwjs-v0.12.0-win-ia32.zip", entry.ArchiveName("0.12.0"))
}

// TestResolveUnsupportedVersion checks that a version outside every range
// resolves to nothing for all built-in platforms.
func TestResolveUnsupportedVersion(t *testing.T) {
	t.Parallel()

	catalog := Default()

	states, err := catalog.Select(catalog.Names())
	require.NoError(t, err)

	for _, state := range states {
		_, ok := state.Descriptor.Resolve(semver.MustParse("9.9.9"))
		require.False(t, ok, "platform %s should not cover 9.9.9", state.Name())
	}
}

// TestSelectUnknownPlatform ensures an unknown name is rejected with ErrUnknownPlatform.
func TestSelectUnknownPlatform(t *testing.T) {
	t.Parallel()

	_, err := Default().Select([]string{"win", "beos"})
	require.ErrorIs(t, err, ErrUnknownPlatform)
	require.ErrorContains(t, err, "beos")
}

// TestSelectDeduplicatesNames ensures a platform listed twice yields one state.
func TestSelectDeduplicatesNames(t *testing.T) {
	t.Parallel()

	states, err := Default().Select([]string{"osx", "osx"})
	require.NoError(t, err)
	require.Len(t, states, 1)
}

// TestSelectClonesDescriptors ensures mutating a selected descriptor leaves
// the catalog untouched.
func TestSelectClonesDescriptors(t *testing.T) {
	t.Parallel()

	catalog := Default()

	states, err := catalog.Select([]string{"win"})
	require.NoError(t, err)

	states[0].Descriptor.Ranges[0].Files[0] = "mutated.exe"
	states[0].Descriptor.Ext = ".mutated"

	fresh, err := catalog.Select([]string{"win"})
	require.NoError(t, err)
	require.Equal(t, "node-webkit.exe", fresh[0].Descriptor.Ranges[0].Files[0])
	require.Equal(t, ".exe", fresh[0].Descriptor.Ext)
}

// TestRunnablePath checks placeholder expansion for flat and bundle platforms.
func TestRunnablePath(t *testing.T) {
	t.Parallel()

	flat := &Descriptor{Runnable: "{root}"}
	require.Equal(t, "nw.exe", flat.RunnablePath("nw.exe"))

	bundle := &Descriptor{Runnable: "{root}/Contents/MacOS/{stem}"}
	require.Equal(t, "nwjs.app/Contents/MacOS/nwjs", bundle.RunnablePath("nwjs.app"))
	require.Equal(t, "node-webkit.app/Contents/MacOS/node-webkit", bundle.RunnablePath("node-webkit.app"))
}

// TestNewCatalogRejectsBadRange ensures an unparsable constraint fails construction.
func TestNewCatalogRejectsBadRange(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(&Descriptor{
		Name:   "broken",
		Ranges: []RangeEntry{{Range: "not-a-range", Files: []string{"x"}}},
	})
	require.Error(t, err)
}

// TestNewCatalogRejectsDuplicates ensures duplicate platform names fail construction.
func TestNewCatalogRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(
		&Descriptor{Name: "win"},
		&Descriptor{Name: "win"},
	)
	require.Error(t, err)
}
