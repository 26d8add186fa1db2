// Package devserver is a reference implementation of the remote auth
// endpoint used by tests and local development.
//
// It stores argon2id password hashes in memory, issues HS256 JWTs and keeps
// a revocation set of token IDs, either in memory or in Redis.
package devserver
