// Package platform describes the target platforms an application can be
// packaged for.
//
// The Catalog maps platform names to immutable descriptors covering the
// runtime artifact names, the per-version file sets, the location of the
// runnable inside a cached runtime and the finishing shape. Builds select
// platforms from the catalog and receive BuildState values, private deep
// copies that the pipeline stages fill in as the build progresses.
package platform
