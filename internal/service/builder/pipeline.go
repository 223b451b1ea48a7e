package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/platform"
)

// Build runs the packaging pipeline for every selected platform. Stages run
// in order and each one completes for all platforms before the next starts.
// The first failing platform aborts the build; finished stages are not
// rolled back.
func (b *Builder) Build(ctx context.Context) error {
	ctx = logger.WithName(ctx, "build")

	defer b.removeArchiveDir(ctx)

	if err := b.collectFiles(ctx); err != nil {
		return fmt.Errorf("collect application files: %w", err)
	}

	if err := b.resolveVersion(ctx); err != nil {
		return fmt.Errorf("resolve runtime version: %w", err)
	}

	if err := b.forEachPlatform(ctx, b.ensureCache); err != nil {
		return fmt.Errorf("ensure runtime cache: %w", err)
	}

	if err := b.forEachPlatform(ctx, b.applyOverride); err != nil {
		return fmt.Errorf("apply manifest overrides: %w", err)
	}

	if err := b.assembleReleases(ctx); err != nil {
		return fmt.Errorf("assemble releases: %w", err)
	}

	if err := b.buildArchives(ctx); err != nil {
		return fmt.Errorf("build application archives: %w", err)
	}

	if err := b.forEachPlatform(ctx, b.finishPlatform); err != nil {
		return fmt.Errorf("finish platforms: %w", err)
	}

	b.events.Log(fmt.Sprintf("Packaged %s for %d platform(s) into %s",
		b.cfg.AppName, len(b.states), filepath.Join(b.cfg.BuildDir, b.releaseName)))

	return nil
}

// forEachPlatform runs fn for every selected platform in parallel and waits
// for all of them. The first error cancels the shared context and is returned.
func (b *Builder) forEachPlatform(
	ctx context.Context,
	fn func(ctx context.Context, state *platform.BuildState) error,
) error {
	group, ctx := errgroup.WithContext(ctx)

	for _, state := range b.states {
		state := state // per-iteration copy; go.mod predates 1.22 loop semantics

		group.Go(func() error {
			return fn(ctx, state)
		})
	}

	return group.Wait()
}

// collectFiles expands the configured patterns into the application file set
// and resolves the application identity from the manifest.
func (b *Builder) collectFiles(ctx context.Context) error {
	b.events.Log("Collecting application files")

	listing, err := b.lister.List(b.cfg.Files)
	if err != nil {
		return err
	}

	b.listing = listing

	if b.cfg.AppName == "" {
		b.cfg.AppName = listing.Manifest.Name
	}

	if b.cfg.AppVersion == "" {
		b.cfg.AppVersion = listing.Manifest.Version
	}

	logger.InfoKV(ctx, "Collected application files",
		"app", b.cfg.AppName,
		"version", b.cfg.AppVersion,
		"files", len(listing.Pairs))

	return nil
}

// resolveVersion pins the requested runtime version and gives every platform
// its file list and artifact URL for that version.
func (b *Builder) resolveVersion(ctx context.Context) error {
	version, err := b.resolver.Resolve(ctx, b.cfg.Version, b.cfg.DownloadURL, b.states)
	if err != nil {
		return err
	}

	b.version = version
	b.events.Log("Using runtime version " + version)

	return nil
}

// ensureCache makes the platform's runtime available locally, downloading it
// when the cache misses.
func (b *Builder) ensureCache(ctx context.Context, state *platform.BuildState) error {
	return b.cache.Ensure(ctx, b.version, state)
}

// applyOverride merges the platform's manifest override into the base
// manifest. Platforms without an override keep the shared manifest.
func (b *Builder) applyOverride(ctx context.Context, state *platform.BuildState) error {
	if !b.listing.Manifest.HasOverrides() {
		return nil
	}

	merged, ok, err := b.listing.Manifest.MergedJSON(state.Name())
	if err != nil {
		return err
	}

	if !ok {
		return nil
	}

	state.Override = merged
	logger.InfoKV(ctx, "Applied manifest override", "platform", state.Name())

	return nil
}
