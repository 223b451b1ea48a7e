package download

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// unpackDirPermissions is the mode for directories created during extraction.
const unpackDirPermissions = 0o755

var (
	// errUnsafeArchivePath is returned for entries escaping the target directory.
	errUnsafeArchivePath = errors.New("archive entry escapes target directory")
	// errUnsafeLinkTarget is returned for symlinks pointing outside the archive.
	errUnsafeLinkTarget = errors.New("archive symlink target is unsafe")
)

// unpackZip extracts the archive into dir.
func unpackZip(file *os.File, size int64, dir string) error {
	reader, err := zip.NewReader(file, size)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}

	names := make([]string, 0, len(reader.File))
	for _, entry := range reader.File {
		names = append(names, entry.Name)
	}

	top := sharedTopDir(names)

	for _, entry := range reader.File {
		name, ok := stripTopDir(entry.Name, top)
		if !ok {
			continue
		}

		target, err := safeJoin(dir, name)
		if err != nil {
			return err
		}

		mode := entry.Mode()

		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, unpackDirPermissions); err != nil {
				return fmt.Errorf("create directory %s: %w", name, err)
			}
		case mode&os.ModeSymlink != 0:
			linkTarget, err := readZipEntry(entry)
			if err != nil {
				return fmt.Errorf("read symlink %s: %w", name, err)
			}

			if err := writeSymlink(target, string(linkTarget)); err != nil {
				return fmt.Errorf("create symlink %s: %w", name, err)
			}
		default:
			contents, err := entry.Open()
			if err != nil {
				return fmt.Errorf("open entry %s: %w", name, err)
			}

			err = writeFile(contents, target, mode)
			_ = contents.Close()

			if err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}
		}
	}

	return nil
}

// unpackTarGz extracts the archive into dir. The stream is walked twice:
// once to learn the shared top-level directory, once to extract.
func unpackTarGz(file *os.File, dir string) error {
	names, err := tarEntryNames(file)
	if err != nil {
		return err
	}

	top := sharedTopDir(names)

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind archive: %w", err)
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		name, ok := stripTopDir(header.Name, top)
		if !ok {
			continue
		}

		target, err := safeJoin(dir, name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, unpackDirPermissions); err != nil {
				return fmt.Errorf("create directory %s: %w", name, err)
			}
		case tar.TypeSymlink:
			if err := writeSymlink(target, header.Linkname); err != nil {
				return fmt.Errorf("create symlink %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := writeFile(tr, target, header.FileInfo().Mode()); err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}
		default:
			// Hard links and device nodes do not appear in runtime archives.
		}
	}
}

// tarEntryNames lists entry names without extracting anything.
func tarEntryNames(file *os.File) ([]string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() { _ = gz.Close() }()

	var names []string

	tr := tar.NewReader(gz)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return names, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}

		names = append(names, header.Name)
	}
}

// sharedTopDir returns the single top-level directory every entry lives
// under, or "" when entries sit at multiple roots.
func sharedTopDir(names []string) string {
	var top string

	for _, name := range names {
		name = strings.TrimPrefix(name, "./")
		if name == "" || name == "." {
			continue
		}

		first, _, found := strings.Cut(name, "/")
		if !found || first == ".." {
			// A file at the archive root means there is no wrapper directory.
			return ""
		}

		if top == "" {
			top = first
			continue
		}

		if first != top {
			return ""
		}
	}

	return top
}

// stripTopDir removes the shared wrapper directory from an entry name.
// ok is false for names that vanish entirely, such as the wrapper itself.
func stripTopDir(name, top string) (string, bool) {
	name = strings.TrimPrefix(name, "./")

	if top != "" {
		if name == top || name == top+"/" {
			return "", false
		}

		name = strings.TrimPrefix(name, top+"/")
	}

	name = strings.Trim(name, "/")
	if name == "" || name == "." {
		return "", false
	}

	return name, true
}

// safeJoin resolves an archive entry name inside dir, rejecting traversal.
func safeJoin(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) ||
		cleaned == ".." ||
		strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", errUnsafeArchivePath, name)
	}

	return filepath.Join(dir, cleaned), nil
}

// readZipEntry returns the full contents of one zip entry.
func readZipEntry(entry *zip.File) ([]byte, error) {
	contents, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = contents.Close() }()

	return io.ReadAll(contents)
}

// writeFile streams contents into target, creating parent directories and
// preserving the archive's permission bits.
func writeFile(contents io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), unpackDirPermissions); err != nil {
		return err
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, contents); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

// writeSymlink creates a symlink after rejecting absolute or escaping targets.
// Runtime bundles use relative links only (macOS framework layouts).
func writeSymlink(target, linkTarget string) error {
	if filepath.IsAbs(linkTarget) || strings.HasPrefix(linkTarget, "..") {
		return fmt.Errorf("%w: %s", errUnsafeLinkTarget, linkTarget)
	}

	if err := os.MkdirAll(filepath.Dir(target), unpackDirPermissions); err != nil {
		return err
	}

	// Re-extraction over an existing cache must not fail on existing links.
	_ = os.Remove(target)

	return os.Symlink(linkTarget, target)
}
