package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nwpack/nwpack/internal/manifest"
)

var (
	// ErrNoMatches is returned when the patterns match no files at all.
	ErrNoMatches = errors.New("file patterns matched no files")
	// ErrManifestNotFound is returned when no application manifest is among the matches.
	ErrManifestNotFound = errors.New("no application manifest matched the file patterns")
)

// Pair maps one application file on disk to its path inside the package.
type Pair struct {
	// Src is the file's location on disk.
	Src string
	// Dst is the file's relative path inside the package, using the
	// native path separator.
	Dst string
}

// Override replaces the contents of one packaged file, leaving the file on
// disk untouched.
type Override struct {
	// Dst is the in-package path of the file to replace.
	Dst string
	// Data is the replacement contents.
	Data []byte
}

// Listing is a resolved application file set.
type Listing struct {
	// Manifest is the parsed application manifest found among the files.
	Manifest *manifest.Manifest
	// ManifestPath is the manifest's location on disk. Its directory is
	// what the run command hands to the runtime.
	ManifestPath string
	// ManifestDst is the manifest's relative path inside the package. The
	// manifest is not always at the package root, so replacing it inside a
	// build keys on this destination, not on its bare file name.
	ManifestDst string
	// Pairs maps each matched file to its path inside the package,
	// sorted by destination for deterministic output.
	Pairs []Pair
}

// Glob matches application files below a root directory.
type Glob struct {
	// Root is the directory patterns are evaluated against.
	// An empty root means the current working directory.
	Root string
}

// List expands the patterns into source/destination pairs and parses the
// application manifest, which must be among the matched files. Patterns are
// slash-separated and applied in order; a pattern prefixed with ! subtracts
// its matches from the set collected so far. Directories themselves are
// never listed, only regular files.
func (g *Glob) List(patterns []string) (*Listing, error) {
	root := g.Root
	if root == "" {
		root = "."
	}

	fsys := os.DirFS(root)
	matched := make(map[string]bool)

	for _, pattern := range patterns {
		if rest, negated := strings.CutPrefix(pattern, "!"); negated {
			if err := excludeMatches(fsys, rest, matched); err != nil {
				return nil, err
			}

			continue
		}

		if err := includeMatches(fsys, pattern, matched); err != nil {
			return nil, err
		}
	}

	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, strings.Join(patterns, ", "))
	}

	names := make([]string, 0, len(matched))
	for name := range matched {
		names = append(names, name)
	}

	sort.Strings(names)

	listing := &Listing{Pairs: make([]Pair, 0, len(names))}
	manifestName := ""

	for _, name := range names {
		listing.Pairs = append(listing.Pairs, Pair{
			Src: filepath.Join(root, filepath.FromSlash(name)),
			Dst: filepath.FromSlash(name),
		})

		// The shallowest manifest wins; names are sorted, so the first
		// candidate at the minimal depth is stable.
		if filepath.Base(name) == manifest.Filename &&
			(manifestName == "" || depth(name) < depth(manifestName)) {
			manifestName = name
		}
	}

	if manifestName == "" {
		return nil, fmt.Errorf("%w: add %s to the file patterns", ErrManifestNotFound, manifest.Filename)
	}

	listing.ManifestPath = filepath.Join(root, filepath.FromSlash(manifestName))
	listing.ManifestDst = filepath.FromSlash(manifestName)

	parsed, err := manifest.Load(listing.ManifestPath)
	if err != nil {
		return nil, err
	}

	listing.Manifest = parsed

	return listing, nil
}

// includeMatches adds the pattern's regular file matches to the set.
func includeMatches(fsys fs.FS, pattern string, matched map[string]bool) error {
	names, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("expand pattern %q: %w", pattern, err)
	}

	for _, name := range names {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			return fmt.Errorf("stat %q: %w", name, err)
		}

		if info.Mode().IsRegular() {
			matched[name] = true
		}
	}

	return nil
}

// excludeMatches removes the pattern's matches from the set.
func excludeMatches(fsys fs.FS, pattern string, matched map[string]bool) error {
	names, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("expand pattern %q: %w", pattern, err)
	}

	for _, name := range names {
		delete(matched, name)
	}

	return nil
}

// depth counts path separators, so a root-level name has depth zero.
func depth(name string) int {
	return strings.Count(name, "/")
}
