package builder

import (
	"context"
	"fmt"

	"github.com/nwpack/nwpack/internal/config"
	"github.com/nwpack/nwpack/internal/logger"
)

// Options contains inputs for the command line entry points.
type Options struct {
	// ConfigPath is the optional path to the packaging settings file.
	ConfigPath string
	// Platforms overrides the configured target platforms when non-empty.
	Platforms []string
	// Version overrides the configured runtime version when non-empty.
	Version string
	// BuildDir overrides the configured output directory when non-empty.
	BuildDir string
	// ForceDownload discards cached runtimes before downloading.
	ForceDownload bool
	// RunArgs are passed through to the application by RunApp.
	RunArgs []string
}

// Run loads the packaging settings and executes the full packaging pipeline:
// collect files, resolve the runtime version, ensure caches, apply manifest
// overrides, assemble releases, build archives and finish every platform.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "nwpack")

	b, err := newFromOptions(opts)
	if err != nil {
		return fmt.Errorf("initialize build: %w", err)
	}

	if err = b.Build(ctx); err != nil {
		return fmt.Errorf("packaging failed: %w", err)
	}

	return nil
}

// RunApp loads the packaging settings and launches the application on the
// host platform, returning the application's exit code.
func RunApp(ctx context.Context, opts *Options) (int, error) {
	ctx = logger.WithName(ctx, "nwpack")

	b, err := newFromOptions(opts)
	if err != nil {
		return 0, fmt.Errorf("initialize run: %w", err)
	}

	code, err := b.RunApp(ctx)
	if err != nil {
		return 0, fmt.Errorf("run failed: %w", err)
	}

	return code, nil
}

// newFromOptions loads the settings file and applies command line overrides.
func newFromOptions(opts *Options) (*Builder, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if len(opts.Platforms) > 0 {
		cfg.Platforms = opts.Platforms
	}

	if opts.Version != "" {
		cfg.Version = opts.Version
	}

	if opts.BuildDir != "" {
		cfg.BuildDir = opts.BuildDir
	}

	if opts.ForceDownload {
		cfg.ForceDownload = true
	}

	cfg.RunArgs = opts.RunArgs

	return New(cfg)
}
