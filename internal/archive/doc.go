// Package archive builds the zip payloads embedded into or shipped next to
// packaged applications.
//
// The archive layout mirrors the source/destination pairs produced by the
// files package. A platform-specific manifest can be substituted into the
// archive without rewriting anything on disk, which is how platforms with
// manifest overrides get their own payload.
package archive
