// Package version exposes nwpack's build metadata.
//
// Version, Commit, and BuildTime are injected via Go ldflags on release
// builds and fall back to local-build defaults. Short and Full render them
// for the version subcommand and log output.
package version
