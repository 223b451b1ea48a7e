package download

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nwpack/nwpack/internal/runtime"
)

// archiveEntry describes one test archive member.
type archiveEntry struct {
	name string
	body string
	mode os.FileMode
	link string
}

// buildZip assembles a zip archive in memory. Names ending in a slash become
// directories and entries with a link become symlinks.
func buildZip(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := zip.NewWriter(&buf)

	for _, e := range entries {
		header := &zip.FileHeader{Name: e.name, Method: zip.Deflate}

		switch {
		case strings.HasSuffix(e.name, "/"):
			header.SetMode(os.ModeDir | 0o755)

			_, err := w.CreateHeader(header)
			require.NoError(t, err)
		case e.link != "":
			header.SetMode(os.ModeSymlink | 0o777)

			f, err := w.CreateHeader(header)
			require.NoError(t, err)

			_, err = f.Write([]byte(e.link))
			require.NoError(t, err)
		default:
			mode := e.mode
			if mode == 0 {
				mode = 0o644
			}

			header.SetMode(mode)

			f, err := w.CreateHeader(header)
			require.NoError(t, err)

			_, err = f.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, w.Close())

	return buf.Bytes()
}

// buildTarGz assembles a tar.gz archive in memory.
func buildTarGz(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.name, "/"):
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     e.name,
				Typeflag: tar.TypeDir,
				Mode:     0o755,
			}))
		case e.link != "":
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     e.name,
				Typeflag: tar.TypeSymlink,
				Linkname: e.link,
				Mode:     0o777,
			}))
		default:
			mode := e.mode
			if mode == 0 {
				mode = 0o644
			}

			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     e.name,
				Typeflag: tar.TypeReg,
				Mode:     int64(mode),
				Size:     int64(len(e.body)),
			}))

			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

// newMirror serves canned artifacts by URL path.
func newMirror(t *testing.T, artifacts map[string][]byte) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := artifacts[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write(body)
	}))

	t.Cleanup(server.Close)

	return server
}

// TestLatest checks version index parsing and its failure modes.
func TestLatest(t *testing.T) {
	t.Parallel()

	mirror := newMirror(t, map[string][]byte{
		"/versions.json": []byte(`{"latest": "v0.12.3", "versions": []}`),
	})

	latest, err := NewClient(mirror.URL).Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v0.12.3", latest)

	empty := newMirror(t, map[string][]byte{
		"/versions.json": []byte(`{"versions": []}`),
	})

	_, err = NewClient(empty.URL).Latest(context.Background())
	require.ErrorContains(t, err, "no latest version")

	missing := newMirror(t, map[string][]byte{})

	_, err = NewClient(missing.URL).Latest(context.Background())
	require.True(t, runtime.IsNotFound(err))
}

// TestDownloadAndUnpackZip checks extraction of a wrapped zip artifact with
// permissions, nested directories and symlinks preserved.
func TestDownloadAndUnpackZip(t *testing.T) {
	t.Parallel()

	archive := buildZip(t, []archiveEntry{
		{name: "nwjs-v0.12.0-osx-ia32/"},
		{name: "nwjs-v0.12.0-osx-ia32/nwjs.app/Contents/MacOS/nwjs", body: "binary", mode: 0o755},
		{name: "nwjs-v0.12.0-osx-ia32/nwjs.app/Contents/Info.plist", body: "<plist/>"},
		{name: "nwjs-v0.12.0-osx-ia32/nwjs.app/Contents/Frameworks/current", link: "Versions/A"},
		{name: "nwjs-v0.12.0-osx-ia32/credits.html", body: "<html/>"},
	})

	mirror := newMirror(t, map[string][]byte{
		"/v0.12.0/nwjs-v0.12.0-osx-ia32.zip": archive,
	})

	dir := t.TempDir()
	client := NewClient(mirror.URL)

	err := client.DownloadAndUnpack(context.Background(), dir, mirror.URL+"/v0.12.0/nwjs-v0.12.0-osx-ia32.zip")
	require.NoError(t, err)

	// The wrapper directory is gone.
	require.NoDirExists(t, filepath.Join(dir, "nwjs-v0.12.0-osx-ia32"))

	binary := filepath.Join(dir, "nwjs.app", "Contents", "MacOS", "nwjs")
	info, err := os.Stat(binary)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	link, err := os.Readlink(filepath.Join(dir, "nwjs.app", "Contents", "Frameworks", "current"))
	require.NoError(t, err)
	require.Equal(t, "Versions/A", link)

	require.FileExists(t, filepath.Join(dir, "credits.html"))
}

// TestDownloadAndUnpackZipWithoutWrapper ensures archives without a single
// top-level directory extract as-is.
func TestDownloadAndUnpackZipWithoutWrapper(t *testing.T) {
	t.Parallel()

	archive := buildZip(t, []archiveEntry{
		{name: "nw.exe", body: "binary", mode: 0o755},
		{name: "nw.pak", body: "resources"},
	})

	mirror := newMirror(t, map[string][]byte{"/flat.zip": archive})

	dir := t.TempDir()

	err := NewClient(mirror.URL).DownloadAndUnpack(context.Background(), dir, mirror.URL+"/flat.zip")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "nw.exe"))
	require.FileExists(t, filepath.Join(dir, "nw.pak"))
}

// TestDownloadAndUnpackTarGz checks extraction of a wrapped tar.gz artifact.
func TestDownloadAndUnpackTarGz(t *testing.T) {
	t.Parallel()

	archive := buildTarGz(t, []archiveEntry{
		{name: "nwjs-v0.12.0-linux-x64/"},
		{name: "nwjs-v0.12.0-linux-x64/nw", body: "binary", mode: 0o755},
		{name: "nwjs-v0.12.0-linux-x64/nw.pak", body: "resources"},
		{name: "nwjs-v0.12.0-linux-x64/locales/"},
		{name: "nwjs-v0.12.0-linux-x64/locales/en-US.pak", body: "locale"},
		{name: "nwjs-v0.12.0-linux-x64/lib/libnw.so.1", link: "libnw.so.1.0"},
	})

	mirror := newMirror(t, map[string][]byte{
		"/v0.12.0/nwjs-v0.12.0-linux-x64.tar.gz": archive,
	})

	dir := t.TempDir()

	err := NewClient(mirror.URL).DownloadAndUnpack(context.Background(), dir, mirror.URL+"/v0.12.0/nwjs-v0.12.0-linux-x64.tar.gz")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "nw"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	require.FileExists(t, filepath.Join(dir, "locales", "en-US.pak"))

	link, err := os.Readlink(filepath.Join(dir, "lib", "libnw.so.1"))
	require.NoError(t, err)
	require.Equal(t, "libnw.so.1.0", link)
}

// TestDownloadNotFound ensures missing artifacts classify as not-found.
func TestDownloadNotFound(t *testing.T) {
	t.Parallel()

	mirror := newMirror(t, map[string][]byte{})

	err := NewClient(mirror.URL).DownloadAndUnpack(context.Background(), t.TempDir(), mirror.URL+"/v9.9.9/nwjs-v9.9.9-win-ia32.zip")
	require.True(t, runtime.IsNotFound(err))
}

// TestDownloadRejectsTraversal ensures entries escaping the cache directory fail extraction.
func TestDownloadRejectsTraversal(t *testing.T) {
	t.Parallel()

	archive := buildZip(t, []archiveEntry{
		{name: "good.txt", body: "fine"},
		{name: "../evil.txt", body: "escape"},
	})

	mirror := newMirror(t, map[string][]byte{"/bad.zip": archive})

	parent := t.TempDir()
	dir := filepath.Join(parent, "cache")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	// Depending on the zipinsecurepath setting the reader itself may refuse
	// the archive; either way nothing may land outside the cache directory.
	err := NewClient(mirror.URL).DownloadAndUnpack(context.Background(), dir, mirror.URL+"/bad.zip")
	require.Error(t, err)
	require.NoFileExists(t, filepath.Join(parent, "evil.txt"))
}

// TestDownloadRejectsUnsafeSymlink ensures escaping link targets fail extraction.
func TestDownloadRejectsUnsafeSymlink(t *testing.T) {
	t.Parallel()

	archive := buildZip(t, []archiveEntry{
		{name: "runtime/nw", body: "binary", mode: 0o755},
		{name: "runtime/escape", link: "../../etc/passwd"},
	})

	mirror := newMirror(t, map[string][]byte{"/bad.zip": archive})

	err := NewClient(mirror.URL).DownloadAndUnpack(context.Background(), t.TempDir(), mirror.URL+"/bad.zip")
	require.ErrorContains(t, err, "symlink target")
}

// TestDownloadUnknownFormat ensures unexpected artifact extensions are rejected.
func TestDownloadUnknownFormat(t *testing.T) {
	t.Parallel()

	mirror := newMirror(t, map[string][]byte{"/runtime.bin": []byte("blob")})

	err := NewClient(mirror.URL).DownloadAndUnpack(context.Background(), t.TempDir(), mirror.URL+"/runtime.bin")
	require.ErrorContains(t, err, "unknown archive format")
}

// TestCacheComplete checks completeness detection for files and directories.
func TestCacheComplete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nw.exe"), []byte("binary"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "locales"), 0o755))

	require.True(t, CacheComplete(dir, []string{"nw.exe", "locales"}))
	require.False(t, CacheComplete(dir, []string{"nw.exe", "nw.pak"}))
}
