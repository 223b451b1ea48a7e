package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nwpack/nwpack/internal/files"
	"github.com/nwpack/nwpack/internal/logger"
)

// Zip builds application payload archives.
type Zip struct{}

// Build writes the application files into destDir/name and returns the
// archive path. When override is non-nil, the entry at its destination is
// written with the replacement contents, leaving the file on disk
// untouched. Pairs are written in the given order, so sorted input yields
// reproducible archives.
func (z *Zip) Build(
	ctx context.Context,
	pairs []files.Pair,
	destDir, name string,
	override *files.Override,
) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	path := filepath.Join(destDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive %s: %w", name, err)
	}

	w := zip.NewWriter(out)

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			_ = w.Close()
			_ = out.Close()

			return "", err
		}

		if err := writeEntry(w, pair, override); err != nil {
			_ = w.Close()
			_ = out.Close()

			return "", fmt.Errorf("archive %s: %w", pair.Dst, err)
		}
	}

	if err := w.Close(); err != nil {
		_ = out.Close()

		return "", fmt.Errorf("finalize archive %s: %w", name, err)
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close archive %s: %w", name, err)
	}

	logger.DebugKV(ctx, "Built application archive", "path", path, "files", len(pairs))

	return path, nil
}

// writeEntry adds one application file to the archive.
func writeEntry(w *zip.Writer, pair files.Pair, override *files.Override) error {
	info, err := os.Stat(pair.Src)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.ToSlash(pair.Dst)
	header.Method = zip.Deflate

	entry, err := w.CreateHeader(header)
	if err != nil {
		return err
	}

	if override != nil && pair.Dst == override.Dst {
		_, err = entry.Write(override.Data)

		return err
	}

	in, err := os.Open(pair.Src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	_, err = io.Copy(entry, in)

	return err
}
