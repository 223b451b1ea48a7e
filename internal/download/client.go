package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/runtime"
)

// versionIndexFilename is the version listing published by the mirror.
const versionIndexFilename = "versions.json"

var (
	// errEmptyVersionIndex is returned when the mirror's index has no latest entry.
	errEmptyVersionIndex = errors.New("version index declares no latest version")
	// errUnknownArchiveFormat is returned for artifacts that are neither zip nor tar.gz.
	errUnknownArchiveFormat = errors.New("unknown archive format")
)

// Client downloads runtime artifacts and version metadata over HTTP.
// It implements both the downloader and the version index consumed by the
// build pipeline.
type Client struct {
	// HTTPClient issues all requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// BaseURL is the mirror the version index is read from.
	BaseURL string
}

// NewClient returns a client reading from the given mirror base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		HTTPClient: http.DefaultClient,
		BaseURL:    baseURL,
	}
}

// Latest reads the mirror's version index and returns its latest entry.
func (c *Client) Latest(ctx context.Context) (string, error) {
	url := strings.TrimSuffix(c.BaseURL, "/") + "/" + versionIndexFilename

	response, err := c.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch version index: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	var index struct {
		Latest string `json:"latest"`
	}

	if err := json.NewDecoder(response.Body).Decode(&index); err != nil {
		return "", fmt.Errorf("decode version index: %w", err)
	}

	if index.Latest == "" {
		return "", errEmptyVersionIndex
	}

	return index.Latest, nil
}

// CheckCache reports whether dir already holds every path in files.
func (c *Client) CheckCache(dir string, files []string) bool {
	return CacheComplete(dir, files)
}

// CacheComplete reports whether dir holds every path in files.
// Entries may name files or directories.
func CacheComplete(dir string, files []string) bool {
	for _, name := range files {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return false
		}
	}

	return true
}

// DownloadAndUnpack fetches the archive at url into a temporary file and
// unpacks its contents into dir. The single top-level directory that
// runtime archives wrap their files in is flattened away.
func (c *Client) DownloadAndUnpack(ctx context.Context, dir, url string) error {
	response, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	tmp, err := os.CreateTemp("", "nwpack-download-")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, response.Body)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	logger.DebugKV(ctx, "Downloaded artifact", "url", url, "bytes", size)

	switch {
	case strings.HasSuffix(url, ".zip"):
		return unpackZip(tmp, size, dir)
	case strings.HasSuffix(url, ".tar.gz") || strings.HasSuffix(url, ".tgz"):
		return unpackTarGz(tmp, dir)
	default:
		return fmt.Errorf("%w: %s", errUnknownArchiveFormat, url)
	}
}

// get issues a GET request and verifies the response status.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, &runtime.StatusError{URL: url, Status: response.StatusCode}
	}

	return response, nil
}
