package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, defaults and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing file patterns.
	cfg := new(Config)

	err := Validate(cfg)
	require.ErrorIs(t, err, ErrNoFiles)

	// Missing platforms.
	cfg = &Config{
		Files: []string{"app/**"},
	}

	err = Validate(cfg)
	require.ErrorIs(t, err, ErrNoPlatforms)

	// Bad download URL.
	cfg = &Config{
		Files:       []string{"app/**"},
		Platforms:   []string{"win"},
		DownloadURL: "not a url",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Okay, defaults filled in.
	cfg = &Config{
		Files:     []string{"app/**"},
		Platforms: []string{"win", "osx"},
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultVersion, cfg.Version)
	require.Equal(t, DefaultDownloadURL, cfg.DownloadURL)
	require.Equal(t, DefaultBuildDirname, cfg.BuildDir)
	require.Equal(t, DefaultCacheDir(), cfg.CacheDir)
	require.Equal(t, BuildTypeDefault, cfg.BuildType)
}

// TestValidateBuildTypes checks the build type whitelist and the custom type contract.
func TestValidateBuildTypes(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Files:     []string{"app/**"},
		Platforms: []string{"win"},
		BuildType: BuildType("nightly"),
	}

	err := Validate(cfg)
	require.ErrorContains(t, err, "unknown build type")

	// Custom without a naming function.
	cfg.BuildType = BuildTypeCustom

	err = Validate(cfg)
	require.Error(t, err)

	// Custom with a naming function.
	cfg.NameFunc = func(c *Config) string { return c.AppName + "-custom" }

	err = Validate(cfg)
	require.NoError(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		AppName:    "demo",
		Files:      []string{"app/**", "!app/tmp/**"},
		Platforms:  []string{"win", "linux64"},
		Version:    "0.12.0",
		Zip:        map[string]bool{"osx": true},
		WinIco:     "assets/app.ico",
		MacCredits: "assets/credits.html",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.AppName, loaded.AppName)
	require.Equal(t, cfg.Files, loaded.Files)
	require.Equal(t, cfg.Platforms, loaded.Platforms)
	require.Equal(t, cfg.Version, loaded.Version)
	require.Equal(t, cfg.Zip, loaded.Zip)
	require.Equal(t, cfg.WinIco, loaded.WinIco)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestReleaseName checks the folder naming strategies.
func TestReleaseName(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		AppName:    "Demo App",
		AppVersion: "2.5.0",
		BuildType:  BuildTypeDefault,
	}

	require.Equal(t, "Demo App", cfg.ReleaseName())

	cfg.BuildType = BuildTypeVersioned
	require.Equal(t, "Demo App - v2.5.0", cfg.ReleaseName())

	cfg.BuildType = BuildTypeTimestamped
	name := cfg.ReleaseName()
	require.True(t, strings.HasPrefix(name, "Demo App - "))

	_, err := strconv.ParseInt(strings.TrimPrefix(name, "Demo App - "), 10, 64)
	require.NoError(t, err)

	cfg.BuildType = BuildTypeCustom
	cfg.NameFunc = func(c *Config) string { return c.AppName + " nightly " + c.AppVersion }
	require.Equal(t, "Demo App nightly 2.5.0", cfg.ReleaseName())
}
