// Package manifest parses the application manifest (package.json) and
// renders platform-specific variants of it.
//
// A manifest may carry a platformOverrides block mapping platform names to
// partial documents. MergedJSON merges such a block onto the base document
// with JSON merge patch semantics, so a platform can replace its window
// settings or drop a field entirely while every unrelated field survives
// untouched.
package manifest
