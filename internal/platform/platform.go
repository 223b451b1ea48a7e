package platform

import (
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Shape selects the finishing strategy for a platform's release output.
type Shape string

const (
	// ShapeFlat is a directory of loose runtime files next to the application payload.
	ShapeFlat Shape = "flat"
	// ShapeBundle is a self-contained application bundle directory, such as a macOS .app.
	ShapeBundle Shape = "bundle"
)

// RangeEntry maps a runtime version range to the file set shipped for it.
type RangeEntry struct {
	// Range is the semantic version constraint this entry covers.
	Range string
	// Files are the runtime paths copied into a release, relative to the
	// cache directory. The first entry is the primary executable.
	Files []string
	// Archive is the file name of the downloadable runtime artifact.
	// The {version} placeholder is replaced with the resolved version.
	Archive string

	// constraint is the parsed form of Range, populated by NewCatalog.
	constraint *semver.Constraints
}

// ArchiveName renders the artifact file name for the given runtime version.
func (e *RangeEntry) ArchiveName(version string) string {
	return strings.ReplaceAll(e.Archive, "{version}", version)
}

// Descriptor describes how one target platform is downloaded, laid out and finished.
type Descriptor struct {
	// Name is the catalog key of the platform.
	Name string
	// Shape selects the finishing strategy.
	Shape Shape
	// Ranges lists version-dependent file sets in declaration order.
	// The first range covering a version wins.
	Ranges []RangeEntry
	// Runnable locates the executable inside a cached runtime.
	// {root} expands to the first resolved file and {stem} to its base
	// name without extension.
	Runnable string
	// Ext is appended to the application name when the primary executable
	// is renamed during assembly.
	Ext string
	// Payload is the file name used when the application archive is shipped
	// next to the executable instead of being merged into it.
	Payload string
	// AlwaysZip forces the application files into an archive regardless of
	// the per-platform zip setting.
	AlwaysZip bool
}

// Resolve returns the first range entry covering the given runtime version.
// The second return value is false when no range matches.
func (d *Descriptor) Resolve(v *semver.Version) (*RangeEntry, bool) {
	for i := range d.Ranges {
		if d.Ranges[i].constraint.Check(v) {
			return &d.Ranges[i], true
		}
	}

	return nil, false
}

// SupportedRanges lists the version constraints the descriptor covers,
// in declaration order. Used to compose resolution error messages.
func (d *Descriptor) SupportedRanges() []string {
	ranges := make([]string, 0, len(d.Ranges))
	for i := range d.Ranges {
		ranges = append(ranges, d.Ranges[i].Range)
	}

	return ranges
}

// RunnablePath expands the Runnable pattern for the given root file name.
func (d *Descriptor) RunnablePath(root string) string {
	stem := strings.TrimSuffix(root, filepath.Ext(root))

	path := strings.ReplaceAll(d.Runnable, "{root}", root)

	return strings.ReplaceAll(path, "{stem}", stem)
}

// clone returns a deep copy so per-build mutations never reach the catalog.
func (d *Descriptor) clone() *Descriptor {
	out := *d

	out.Ranges = make([]RangeEntry, len(d.Ranges))
	for i, e := range d.Ranges {
		out.Ranges[i] = e
		out.Ranges[i].Files = append([]string(nil), e.Files...)
	}

	return &out
}

// Archive is a built application archive assigned to a platform.
type Archive struct {
	// Path is the location of the archive file.
	Path string
	// Override reports whether the archive embeds a platform-specific manifest.
	// Archives without an override may be shared between platforms.
	Override bool
}

// BuildState carries one platform's mutable state through the build pipeline.
// Each stage fills in the fields it owns; stages never touch another
// platform's state, which keeps the per-stage fan-out race free.
type BuildState struct {
	// Descriptor is this build's private copy of the catalog entry.
	Descriptor *Descriptor
	// Files is the resolved runtime file list for the requested version.
	// After assembly the first entry holds the renamed executable.
	Files []string
	// URL is the resolved download location of the runtime artifact.
	URL string
	// CacheDir is the per-version, per-platform runtime cache directory.
	CacheDir string
	// ReleaseDir is the output directory of the assembled release.
	ReleaseDir string
	// Override is the merged platform-specific manifest, nil when the
	// application manifest declares no overrides for this platform.
	Override []byte
	// Archive is the application archive assigned by the bundling stage,
	// nil when the platform ships loose application files.
	Archive *Archive
}

// Name returns the platform name of the underlying descriptor.
func (s *BuildState) Name() string {
	return s.Descriptor.Name
}
