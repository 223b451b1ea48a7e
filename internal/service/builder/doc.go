// Package builder orchestrates the packaging pipeline: collecting the
// application files, resolving the runtime version, ensuring per-platform
// runtime caches, applying manifest overrides, assembling release folders,
// building application archives and finishing each platform's artifact
// shape. It also launches the application on the host platform for
// development runs.
//
// Stages run in sequence and act as barriers; within a stage every selected
// platform is processed in parallel and the first failure aborts the build.
// Completed stages are not rolled back, so a failed build may leave partial
// release folders behind; the next build wipes them.
package builder
