package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nwpack/nwpack/internal/config"
	"github.com/nwpack/nwpack/internal/logger"
	"github.com/nwpack/nwpack/internal/version"
)

var (
	// configPath to the packaging settings YAML file.
	configPath string
	// logLevel of the process logger.
	logLevel string

	// appExitCode carries the application's exit code out of nwpack run.
	appExitCode int

	// rootCmd represents the base command of the nwpack CLI.
	rootCmd = &cobra.Command{
		Use:   "nwpack",
		Short: "Package web applications with the NW.js runtime.",
		Long: `nwpack downloads NW.js runtime distributions, caches them and packages web
applications into ready-to-run releases for Windows, macOS and Linux.

Settings are read from a YAML file (nwpack.yaml by default); command flags
override individual values. Start a project with "nwpack init".`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the nwpack CLI and exits with non-zero status on error.
// A successful "nwpack run" exits with the application's own exit code.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}

	if appExitCode != 0 {
		os.Exit(appExitCode)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to packaging settings file")
	rootCmd.PersistentFlags().
		StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn or error")
}
