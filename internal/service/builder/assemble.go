package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/platform"
)

const releaseDirPermissions = 0o755

// assembleReleases names the release folder once for the whole build, then
// recreates each platform's release directory from the cached runtime.
func (b *Builder) assembleReleases(ctx context.Context) error {
	b.releaseName = b.cfg.ReleaseName()
	b.events.Log("Assembling releases into " + filepath.Join(b.cfg.BuildDir, b.releaseName))

	return b.forEachPlatform(ctx, b.assembleRelease)
}

// assembleRelease wipes and recreates the platform's release directory and
// copies the runtime files into it. The first runtime file is the primary
// artifact and is renamed after the application.
func (b *Builder) assembleRelease(ctx context.Context, state *platform.BuildState) error {
	dir := filepath.Join(b.cfg.BuildDir, b.releaseName, state.Name())

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear release directory of %s: %w", state.Name(), err)
	}

	if err := os.MkdirAll(dir, releaseDirPermissions); err != nil {
		return fmt.Errorf("create release directory of %s: %w", state.Name(), err)
	}

	state.ReleaseDir = dir

	for i, name := range state.Files {
		src := filepath.Join(state.CacheDir, filepath.FromSlash(name))

		dstName := name
		if i == 0 {
			dstName = b.cfg.AppName + state.Descriptor.Ext
			state.Files[0] = dstName
		}

		if err := copyPath(src, filepath.Join(dir, filepath.FromSlash(dstName))); err != nil {
			return fmt.Errorf("copy runtime into release of %s: %w", state.Name(), err)
		}
	}

	logger.InfoKV(ctx, "Assembled release", "platform", state.Name(), "dir", dir)

	return nil
}
