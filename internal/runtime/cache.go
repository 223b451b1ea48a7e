package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/platform"
)

// cacheDirPermissions is the mode for created cache directories.
const cacheDirPermissions = 0o755

// errIncompleteArchive is returned when a downloaded artifact lacks expected files.
var errIncompleteArchive = errors.New("downloaded runtime archive is incomplete")

// Downloader fetches runtime artifacts and unpacks them into the cache.
type Downloader interface {
	// CheckCache reports whether dir already holds every path in files.
	CheckCache(dir string, files []string) bool
	// DownloadAndUnpack fetches the archive at url and unpacks its contents
	// into dir, flattening the archive's single top-level directory.
	DownloadAndUnpack(ctx context.Context, dir, url string) error
}

// StatusError reports a non-success HTTP response for a remote resource.
type StatusError struct {
	// URL is the location that was requested.
	URL string
	// Status is the HTTP status code of the response.
	Status int
}

// Error renders the failed location and status.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.URL, e.Status)
}

// IsNotFound reports whether err says the remote resource does not exist.
func IsNotFound(err error) bool {
	var statusErr *StatusError

	return errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound
}

// CacheManager keeps per-version, per-platform runtime caches complete.
// Ensure calls for different platforms may run concurrently because every
// platform owns a distinct cache directory.
type CacheManager struct {
	root       string
	force      bool
	downloader Downloader
}

// NewCacheManager returns a cache manager storing runtimes under root.
// With force set, cached runtimes are discarded and downloaded again.
func NewCacheManager(root string, force bool, downloader Downloader) *CacheManager {
	return &CacheManager{
		root:       root,
		force:      force,
		downloader: downloader,
	}
}

// Dir returns the cache directory for one runtime version and platform.
func (m *CacheManager) Dir(version, platformName string) string {
	return filepath.Join(m.root, version, platformName)
}

// Ensure makes the platform's cache directory complete for the resolved
// version, downloading and unpacking the runtime artifact when any of the
// resolved files is missing. On success the state's CacheDir is set.
func (m *CacheManager) Ensure(ctx context.Context, version string, state *platform.BuildState) error {
	dir := m.Dir(version, state.Name())

	if m.force {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("discard cache of platform %s: %w", state.Name(), err)
		}
	}

	if err := os.MkdirAll(dir, cacheDirPermissions); err != nil {
		return fmt.Errorf("create cache directory of platform %s: %w", state.Name(), err)
	}

	if m.downloader.CheckCache(dir, state.Files) {
		logger.InfoKV(ctx, "Using cached runtime", "platform", state.Name(), "dir", dir)

		state.CacheDir = dir

		return nil
	}

	logger.InfoKV(ctx, "Downloading runtime", "platform", state.Name(), "url", state.URL)

	if err := m.downloader.DownloadAndUnpack(ctx, dir, state.URL); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf(
				"runtime %s is not published for platform %s at %s, check the requested version: %w",
				version, state.Name(), state.URL, err)
		}

		return fmt.Errorf("download runtime for platform %s: %w", state.Name(), err)
	}

	if !m.downloader.CheckCache(dir, state.Files) {
		return fmt.Errorf("%w: %s did not contain all of %v",
			errIncompleteArchive, state.URL, state.Files)
	}

	state.CacheDir = dir

	return nil
}
