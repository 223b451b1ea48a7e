package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nwpack/nwpack/internal/service/builder"
)

var (
	// buildPlatforms overrides the configured target platforms.
	buildPlatforms []string
	// buildRuntimeVersion overrides the configured runtime version.
	buildRuntimeVersion string
	// buildOutputDir overrides the configured build directory.
	buildOutputDir string
	// buildForceDownload discards cached runtimes before packaging.
	buildForceDownload bool

	// buildCmd packages the application for every selected platform.
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Package the application for the configured platforms",
		Long: `Collects the application files, downloads and caches the requested NW.js
runtime for every selected platform and assembles ready-to-run releases
under the build directory.

Platforms are packaged in parallel; the first failure aborts the build.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &builder.Options{
				ConfigPath:    configPath,
				Platforms:     buildPlatforms,
				Version:       buildRuntimeVersion,
				BuildDir:      buildOutputDir,
				ForceDownload: buildForceDownload,
			}

			return builder.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	buildCmd.Flags().StringSliceVarP(&buildPlatforms, "platforms", "p", nil,
		"target platforms overriding the settings file (win, osx, linux32, linux64)")
	buildCmd.Flags().StringVarP(&buildRuntimeVersion, "runtime", "r", "",
		"runtime version to package, e.g. 0.12.3 or latest")
	buildCmd.Flags().StringVarP(&buildOutputDir, "output", "o", "",
		"directory releases are assembled in")
	buildCmd.Flags().BoolVarP(&buildForceDownload, "force-download", "f", false,
		"discard cached runtimes and download them again")

	rootCmd.AddCommand(buildCmd)
}
