package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/platform"
)

const executableMode os.FileMode = 0o755

// finishPlatform gives the assembled release its final platform shape.
func (b *Builder) finishPlatform(ctx context.Context, state *platform.BuildState) error {
	switch state.Descriptor.Shape {
	case platform.ShapeBundle:
		return b.finishBundle(ctx, state)
	default:
		return b.finishFlat(ctx, state)
	}
}

// finishFlat ships the application next to the runtime executable. The
// archive is merged into the executable unless the settings keep the payload
// separate. A configured icon is embedded afterwards, on the merged file.
func (b *Builder) finishFlat(ctx context.Context, state *platform.BuildState) error {
	executable := filepath.Join(state.ReleaseDir, state.Files[0])

	switch {
	case state.Archive == nil:
		if err := b.copyAppFiles(state, state.ReleaseDir); err != nil {
			return fmt.Errorf("copy application into release of %s: %w", state.Name(), err)
		}
	case b.cfg.SeparatePayload:
		payload := filepath.Join(state.ReleaseDir, state.Descriptor.Payload)
		if err := copyPath(state.Archive.Path, payload); err != nil {
			return fmt.Errorf("ship payload of %s: %w", state.Name(), err)
		}
	default:
		if err := appendPayload(executable, state.Archive.Path); err != nil {
			return fmt.Errorf("merge payload into executable of %s: %w", state.Name(), err)
		}
	}

	if b.cfg.WinIco != "" && state.Descriptor.Ext == ".exe" {
		logger.InfoKV(ctx, "Embedding executable icon",
			"platform", state.Name(), "icon", b.cfg.WinIco)

		if err := b.icons.Embed(ctx, executable, b.cfg.WinIco); err != nil {
			return fmt.Errorf("embed icon of %s: %w", state.Name(), err)
		}
	}

	logger.InfoKV(ctx, "Finished release", "platform", state.Name(), "dir", state.ReleaseDir)

	return nil
}

// appendPayload merges the application archive into the runtime executable.
// nw.js runtimes locate the archive appended to their own image and run it
// directly. The combined file keeps the executable mode bit.
func appendPayload(executable, archivePath string) error {
	exe, err := os.ReadFile(filepath.Clean(executable))
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(filepath.Clean(archivePath))
	if err != nil {
		return err
	}

	err = goupdate.Apply(bytes.NewReader(append(exe, payload...)), goupdate.Options{
		TargetPath: executable,
		TargetMode: executableMode,
	})
	if err != nil {
		return err
	}

	// The previous executable is kept with an .old suffix, remove it.
	oldName := executable + ".old"
	if _, err := os.Stat(oldName); err == nil {
		_ = os.Remove(oldName)
	}

	return nil
}

// copyAppFiles copies the application files into dir, substituting the
// platform's merged manifest when an override exists. The manifest is
// matched by its in-package destination, which may sit below the root.
func (b *Builder) copyAppFiles(state *platform.BuildState, dir string) error {
	for _, pair := range b.listing.Pairs {
		dst := filepath.Join(dir, pair.Dst)

		if state.Override != nil && pair.Dst == b.listing.ManifestDst {
			if err := os.MkdirAll(filepath.Dir(dst), copyDirPermissions); err != nil {
				return err
			}

			if err := os.WriteFile(dst, state.Override, 0o644); err != nil {
				return err
			}

			continue
		}

		if err := copyPath(pair.Src, dst); err != nil {
			return err
		}
	}

	return nil
}
