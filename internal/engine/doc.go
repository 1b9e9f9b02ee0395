// Package engine contains the core scanning logic for knox. It checks and
// reads single files, walks directory trees for candidate source files and
// fans the work out across a bounded worker pool. This package is internal;
// external consumers should use the stable facade in pkg/core.
package engine
