// Package download implements the HTTP transfer side of runtime caching:
// fetching artifacts from a mirror, unpacking zip and tar.gz archives into
// the cache, and reading the mirror's version index.
//
// The Client satisfies the Downloader and VersionIndex interfaces of the
// runtime package. Extraction flattens the wrapper directory runtime
// archives ship with, preserves permission bits and symlinks, and refuses
// entries that would escape the cache directory.
package download
