package builder

import (
	"context"

	"github.com/nwpack/nwpack/internal/archive"
	"github.com/nwpack/nwpack/internal/config"
	"github.com/nwpack/nwpack/internal/download"
	"github.com/nwpack/nwpack/internal/files"
	"github.com/nwpack/nwpack/internal/icon"
	"github.com/nwpack/nwpack/internal/platform"
	"github.com/nwpack/nwpack/internal/runtime"
)

// FileLister resolves the configured file patterns into the application file set.
type FileLister interface {
	// List expands patterns relative to the lister's root and locates the manifest.
	List(patterns []string) (*files.Listing, error)
}

// ZipEngine builds application payload archives.
type ZipEngine interface {
	// Build writes an archive of pairs named name into destDir and returns its path.
	// A non-nil override replaces the content of the entry at its destination.
	Build(ctx context.Context, pairs []files.Pair, destDir, name string, override *files.Override) (string, error)
}

// Builder packages one application. Create a new Builder per build, the
// pipeline accumulates per-platform state that is not reusable.
type Builder struct {
	cfg     *config.Config
	catalog *platform.Catalog
	states  []*platform.BuildState

	lister   FileLister
	zipper   ZipEngine
	index    runtime.VersionIndex
	download runtime.Downloader
	icons    icon.Embedder
	events   Observer

	resolver *runtime.Resolver
	cache    *runtime.CacheManager

	listing     *files.Listing
	version     string
	releaseName string
	archiveDir  string
}

// Option customizes a Builder before its collaborators are wired up.
type Option func(*Builder)

// WithCatalog replaces the built-in platform catalog.
func WithCatalog(catalog *platform.Catalog) Option {
	return func(b *Builder) {
		b.catalog = catalog
	}
}

// WithFileLister replaces the glob-based application file lister.
func WithFileLister(lister FileLister) Option {
	return func(b *Builder) {
		b.lister = lister
	}
}

// WithZipEngine replaces the application archive writer.
func WithZipEngine(zipper ZipEngine) Option {
	return func(b *Builder) {
		b.zipper = zipper
	}
}

// WithVersionIndex replaces the source of the latest published runtime version.
func WithVersionIndex(index runtime.VersionIndex) Option {
	return func(b *Builder) {
		b.index = index
	}
}

// WithDownloader replaces the runtime artifact downloader.
func WithDownloader(downloader runtime.Downloader) Option {
	return func(b *Builder) {
		b.download = downloader
	}
}

// WithIconEmbedder replaces the Windows icon embedder.
func WithIconEmbedder(embedder icon.Embedder) Option {
	return func(b *Builder) {
		b.icons = embedder
	}
}

// WithObserver replaces the default logger-backed progress observer.
func WithObserver(observer Observer) Option {
	return func(b *Builder) {
		b.events = observer
	}
}

// New validates the configuration, selects the target platforms and wires up
// the pipeline collaborators. Options override individual collaborators.
func New(cfg *config.Config, opts ...Option) (*Builder, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	b := &Builder{
		cfg:     cfg,
		catalog: platform.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.lister == nil {
		b.lister = &files.Glob{}
	}

	if b.zipper == nil {
		b.zipper = &archive.Zip{}
	}

	if b.icons == nil {
		b.icons = icon.NewExec()
	}

	if b.events == nil {
		b.events = newLogObserver()
	}

	if b.download == nil || b.index == nil {
		client := download.NewClient(cfg.DownloadURL)

		if b.download == nil {
			b.download = client
		}

		if b.index == nil {
			b.index = client
		}
	}

	states, err := b.catalog.Select(cfg.Platforms)
	if err != nil {
		return nil, err
	}

	b.states = states
	b.resolver = runtime.NewResolver(b.index)
	b.cache = runtime.NewCacheManager(cfg.CacheDir, cfg.ForceDownload, b.download)

	return b, nil
}
