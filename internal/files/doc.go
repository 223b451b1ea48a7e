// Package files resolves the configured glob patterns into the concrete
// application file set of a build.
//
// Pattern syntax is doublestar globbing relative to a root directory, with
// !-prefixed patterns subtracting earlier matches. The resulting listing
// carries the parsed application manifest and one source/destination pair
// per file, ready for the copy and archive stages.
package files
