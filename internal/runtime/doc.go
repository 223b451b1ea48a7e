// Package runtime resolves which nw.js runtime a build packages and keeps
// the downloaded runtimes cached on disk.
//
// The Resolver maps a requested version (explicit or "latest") to concrete
// artifact URLs and file lists per platform. The CacheManager owns the
// cache layout (one directory per version and platform) and delegates
// transfers to a Downloader implementation.
package runtime
