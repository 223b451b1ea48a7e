package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nwpack/nwpack/internal/config"
	"github.com/nwpack/nwpack/internal/logger"
)

var (
	// initForce overwrites an existing settings file.
	initForce bool

	// initCmd writes a starter packaging settings file.
	initCmd = &cobra.Command{
		Use:   "init [app-name]",
		Short: "Write a starter settings file for the application",
		Long: `Writes a starter settings file into the working directory. The app name is
taken from the argument when given, otherwise it stays empty and is resolved
from package.json at build time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var appName string
			if len(args) > 0 {
				appName = args[0]
			}

			return writeStarterSettings(configPath, appName)
		},
	}
)

// writeStarterSettings saves a minimal settings file to grow from. The file
// patterns exclude the build directory so builds never ingest their own output.
func writeStarterSettings(path, appName string) error {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, pass --force to overwrite it", path)
		}
	}

	cfg := &config.Config{
		AppName:   appName,
		Files:     []string{"**/*", "!" + config.DefaultBuildDirname + "/**"},
		Platforms: []string{"win", "osx", "linux64"},
		Version:   config.DefaultVersion,
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	logger.Infof(context.Background(), "Wrote starter settings to %s", path)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing settings file")

	rootCmd.AddCommand(initCmd)
}
