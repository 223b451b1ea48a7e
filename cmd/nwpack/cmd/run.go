package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nwpack/nwpack/internal/service/builder"
)

var (
	// runRuntimeVersion overrides the configured runtime version.
	runRuntimeVersion string
	// runForceDownload discards the cached runtime before launching.
	runForceDownload bool

	// runCmd launches the application on the host platform.
	runCmd = &cobra.Command{
		Use:   "run [-- application arguments]",
		Short: "Run the application on the host platform without packaging",
		Long: `Downloads and caches the NW.js runtime for the host platform and launches
the application straight from its source directory. Arguments after -- are
passed to the application.

The application's output is streamed to the log and its exit code becomes
nwpack's exit code.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &builder.Options{
				ConfigPath:    configPath,
				Version:       runRuntimeVersion,
				ForceDownload: runForceDownload,
				RunArgs:       args,
			}

			code, err := builder.RunApp(ctx, options)
			if err != nil {
				return err
			}

			appExitCode = code

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	runCmd.Flags().StringVarP(&runRuntimeVersion, "runtime", "r", "",
		"runtime version to launch, e.g. 0.12.3 or latest")
	runCmd.Flags().BoolVarP(&runForceDownload, "force-download", "f", false,
		"discard the cached runtime and download it again")

	rootCmd.AddCommand(runCmd)
}
