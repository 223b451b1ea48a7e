package builder

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/nwpack/nwpack/internal/files"
	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/platform"
)

// Application archive names inside the temporary archive directory.
const (
	sharedArchiveName  = "app.nw"
	archiveNameFormat  = "app-%s.nw"
	archiveDirTemplate = "nwpack-archives-"
)

// buildArchives builds the minimal set of application archives. Platforms
// whose manifest was overridden each get their own archive with the merged
// manifest baked in; two or more platforms with the shared manifest reuse a
// single archive; a lone one builds its own. Platforms outside the archiving
// set receive their application files loose during finishing.
func (b *Builder) buildArchives(ctx context.Context) error {
	var agnostic, overridden []*platform.BuildState

	for _, state := range b.states {
		switch {
		case !b.shouldArchive(state):
		case state.Override != nil:
			overridden = append(overridden, state)
		default:
			agnostic = append(agnostic, state)
		}
	}

	if len(agnostic) == 0 && len(overridden) == 0 {
		logger.Debug(ctx, "No application archives required")
		return nil
	}

	dir, err := os.MkdirTemp("", archiveDirTemplate)
	if err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	b.archiveDir = dir
	b.events.Log(fmt.Sprintf("Building application archives for %d platform(s)",
		len(agnostic)+len(overridden)))

	group, ctx := errgroup.WithContext(ctx)

	switch {
	case len(agnostic) > 1:
		group.Go(func() error {
			path, err := b.zipper.Build(ctx, b.listing.Pairs, dir, sharedArchiveName, nil)
			if err != nil {
				return err
			}

			shared := &platform.Archive{Path: path}
			for _, state := range agnostic {
				state.Archive = shared
			}

			return nil
		})
	case len(agnostic) == 1:
		state := agnostic[0]

		group.Go(func() error {
			path, err := b.zipper.Build(ctx, b.listing.Pairs, dir, archiveName(state), nil)
			if err != nil {
				return err
			}

			state.Archive = &platform.Archive{Path: path}

			return nil
		})
	}

	for _, state := range overridden {
		state := state // per-iteration copy; go.mod predates 1.22 loop semantics
		override := &files.Override{Dst: b.listing.ManifestDst, Data: state.Override}

		group.Go(func() error {
			path, err := b.zipper.Build(ctx, b.listing.Pairs, dir, archiveName(state), override)
			if err != nil {
				return err
			}

			state.Archive = &platform.Archive{Path: path, Override: true}

			return nil
		})
	}

	return group.Wait()
}

// shouldArchive reports whether the platform ships its application files as
// an archive. Flat platforms archive unconditionally, bundle platforms only
// when enabled in the settings.
func (b *Builder) shouldArchive(state *platform.BuildState) bool {
	return state.Descriptor.AlwaysZip || b.cfg.Zip[state.Name()]
}

// archiveName returns the file name of a platform's individual archive.
func archiveName(state *platform.BuildState) string {
	return fmt.Sprintf(archiveNameFormat, state.Name())
}

// removeArchiveDir drops the temporary archive directory, best effort.
func (b *Builder) removeArchiveDir(ctx context.Context) {
	if b.archiveDir == "" {
		return
	}

	if err := os.RemoveAll(b.archiveDir); err != nil {
		logger.WarnKV(ctx, "Unable to remove temporary archive directory",
			"dir", b.archiveDir, "error", err)
	}

	b.archiveDir = ""
}
