// Package config defines the packaging settings for an application and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type covers what to package (file patterns), what to package
// it for (platform names, runtime version) and how the output is shaped
// (archiving, payload placement, icons, release folder naming).
package config
