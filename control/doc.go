// Package control
// Author: momentics <momentics@gmail.com>
//
// Process-wide configuration snapshot, runtime metrics, and debug
// introspection for the client runtime: effective ClientConfig, buffer
// pool/queue depth diagnostics, and probe registration for the CLI
// entrypoints.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates
//   - Runtime observers for hot-reload
//   - Metrics telemetry contracts
//   - State export, debug hooks, and probe registration
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
