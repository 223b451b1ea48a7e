package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/platform"
)

// VersionLatest asks the resolver to look up the newest published runtime.
const VersionLatest = "latest"

var (
	// ErrInvalidVersion is returned when the requested version is not valid semver.
	ErrInvalidVersion = errors.New("invalid runtime version")
	// ErrUnsupportedVersion is returned when selected platforms do not cover
	// the requested version.
	ErrUnsupportedVersion = errors.New("unsupported runtime version")
)

// VersionIndex looks up published runtime versions.
type VersionIndex interface {
	// Latest returns the newest published runtime version,
	// with or without a leading "v".
	Latest(ctx context.Context) (string, error)
}

// Resolver turns a requested runtime version into concrete per-platform artifacts.
type Resolver struct {
	index VersionIndex
}

// NewResolver returns a resolver using index to answer VersionLatest requests.
func NewResolver(index VersionIndex) *Resolver {
	return &Resolver{index: index}
}

// Resolve determines the runtime version to package and fills every platform
// state with its resolved file list and artifact URL. The requested version
// may be empty or VersionLatest, in which case the version index is consulted.
//
// When one or more selected platforms do not cover the version, Resolve fails
// with ErrUnsupportedVersion naming each of them, so the caller aborts before
// any cache directory is touched.
func (r *Resolver) Resolve(
	ctx context.Context,
	requested, baseURL string,
	states []*platform.BuildState,
) (string, error) {
	version := strings.TrimSpace(requested)
	if version == "" || version == VersionLatest {
		latest, err := r.index.Latest(ctx)
		if err != nil {
			return "", fmt.Errorf("look up latest runtime version: %w", err)
		}

		logger.InfoKV(ctx, "Latest published runtime", "version", latest)

		version = latest
	}

	version = strings.TrimPrefix(version, "v")

	parsed, err := semver.StrictNewVersion(version)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidVersion, requested, err)
	}

	var unsupported []error

	for _, state := range states {
		entry, ok := state.Descriptor.Resolve(parsed)
		if !ok {
			unsupported = append(unsupported, fmt.Errorf(
				"platform %s supports runtime versions %s, not %s",
				state.Name(), strings.Join(state.Descriptor.SupportedRanges(), ", "), version))

			continue
		}

		state.Files = append([]string(nil), entry.Files...)
		state.URL = ArtifactURL(baseURL, version, entry)
	}

	if len(unsupported) > 0 {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedVersion, errors.Join(unsupported...))
	}

	logger.InfoKV(ctx, "Resolved runtime version", "version", version)

	return version, nil
}

// ArtifactURL composes the download location of one runtime artifact.
func ArtifactURL(baseURL, version string, entry *platform.RangeEntry) string {
	return fmt.Sprintf("%s/v%s/%s", strings.TrimSuffix(baseURL, "/"), version, entry.ArchiveName(version))
}
