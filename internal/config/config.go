package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// BuildType selects how the release folder under the build directory is named.
type BuildType string

const (
	// BuildTypeDefault names the release folder after the application.
	BuildTypeDefault BuildType = "default"
	// BuildTypeVersioned appends the application version to the folder name.
	BuildTypeVersioned BuildType = "versioned"
	// BuildTypeTimestamped appends the build's unix timestamp to the folder name.
	BuildTypeTimestamped BuildType = "timestamped"
	// BuildTypeCustom delegates naming to the NameFunc callback.
	// Only available through the Go API.
	BuildTypeCustom BuildType = "custom"
)

// Config holds the packaging settings for one application.
type Config struct {
	// AppName overrides the application name from the manifest.
	AppName string `yaml:"app_name"`
	// AppVersion overrides the application version from the manifest.
	AppVersion string `yaml:"app_version"`
	// Files are the glob patterns selecting the application files.
	// Patterns prefixed with ! subtract from previously matched paths.
	Files []string `yaml:"files"`
	// Platforms names the catalog platforms to package for.
	Platforms []string `yaml:"platforms"`
	// Version is the runtime version to package, or "latest".
	Version string `yaml:"version"`
	// DownloadURL is the base URL runtime artifacts are fetched from.
	DownloadURL string `yaml:"download_url"`
	// CacheDir is where downloaded runtimes are kept between builds.
	CacheDir string `yaml:"cache_dir"`
	// BuildDir is where releases are assembled.
	BuildDir string `yaml:"build_dir"`
	// BuildType selects the release folder naming strategy.
	BuildType BuildType `yaml:"build_type"`
	// ForceDownload discards cached runtimes and downloads them again.
	ForceDownload bool `yaml:"force_download"`
	// Zip enables application archiving per platform name, for platforms
	// that do not archive unconditionally.
	Zip map[string]bool `yaml:"zip"`
	// SeparatePayload ships the application archive next to the runtime
	// executable instead of merging the two into one file.
	SeparatePayload bool `yaml:"separate_payload"`
	// WinIco is an .ico file embedded into Windows executables.
	WinIco string `yaml:"win_ico"`
	// MacIcns is an .icns file replacing the default bundle icon.
	MacIcns string `yaml:"mac_icns"`
	// MacCredits is an HTML file installed as the bundle's credits page.
	MacCredits string `yaml:"mac_credits"`
	// MacPlist is a complete Info.plist copied into the bundle verbatim.
	// When empty, the runtime's own Info.plist is patched instead.
	MacPlist string `yaml:"mac_plist"`

	// NameFunc names the release folder for BuildTypeCustom.
	// It receives the configuration with AppName and AppVersion resolved.
	// It is not persisted to YAML.
	NameFunc func(*Config) string `yaml:"-"`
	// RunArgs are passed through to the application by the run command.
	// They are not persisted to YAML.
	RunArgs []string `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default packaging settings file.
	DefaultConfigFilename = "nwpack.yaml"

	// DefaultDownloadURL is the official nw.js artifact mirror.
	DefaultDownloadURL = "https://dl.nwjs.io"

	// DefaultBuildDirname is the release output directory,
	// relative to the working directory.
	DefaultBuildDirname = "build"

	// DefaultVersion packages the newest published runtime.
	DefaultVersion = "latest"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrNoFiles is returned when no application file patterns are configured.
	ErrNoFiles = errors.New("at least one file pattern must be provided")
	// ErrNoPlatforms is returned when no target platforms are configured.
	ErrNoPlatforms = errors.New("at least one target platform must be provided")
	// errUnknownBuildType is returned when the build type is not recognized.
	errUnknownBuildType = errors.New("unknown build type")
	// errNameFuncRequired is returned when the custom build type has no name function.
	errNameFuncRequired = errors.New("custom build type requires a name function")
)

// DefaultCacheDir returns the user-level runtime cache directory.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "nwpack")
}

// Load reads packaging settings from the provided path and validates them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes packaging settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, fills defaults for the optional ones and
// verifies formats. The file patterns and platform names must be non-empty;
// platform names are checked against the catalog when the build is constructed.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if len(cfg.Files) == 0 {
		return ErrNoFiles
	}

	if len(cfg.Platforms) == 0 {
		return ErrNoPlatforms
	}

	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	if cfg.DownloadURL == "" {
		cfg.DownloadURL = DefaultDownloadURL
	}

	if _, err := url.ParseRequestURI(cfg.DownloadURL); err != nil {
		return fmt.Errorf("invalid download URL: %w", err)
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir()
	}

	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDirname
	}

	switch cfg.BuildType {
	case "":
		cfg.BuildType = BuildTypeDefault
	case BuildTypeDefault, BuildTypeVersioned, BuildTypeTimestamped:
	case BuildTypeCustom:
		if cfg.NameFunc == nil {
			return errNameFuncRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownBuildType, cfg.BuildType)
	}

	return nil
}

// ReleaseName returns the release folder name for the configured build type.
// AppName and AppVersion must already be resolved from the manifest.
// The timestamped name is taken once per call, so callers wanting one name
// across platforms must call this once and share the result.
func (c *Config) ReleaseName() string {
	switch c.BuildType {
	case BuildTypeVersioned:
		return fmt.Sprintf("%s - v%s", c.AppName, c.AppVersion)
	case BuildTypeTimestamped:
		return fmt.Sprintf("%s - %d", c.AppName, time.Now().Unix())
	case BuildTypeCustom:
		return c.NameFunc(c)
	default:
		return c.AppName
	}
}
