// Package store provides the persistent key-value collaborator used by the
// session manager to keep the bearer token and optional saved credentials
// across process restarts.
//
// # Implementations
//
//   - [Memory]: process-local map; tests and ephemeral runs.
//   - [File]: a single JSON document on disk, replaced atomically on write.
//   - [Redis]: keys under a configurable prefix in a Redis database.
//   - [Sealed]: decorator that encrypts selected keys with age before they
//     reach the wrapped store.
//
// # What this package must NOT do
//
//   - Interpret stored values (tokens and credentials are opaque strings).
//   - Import goAttend (no upward imports).
package store
