// Package goAttend provides the client-side authentication session for the
// attendance app: login and logout against a remote auth endpoint, token
// persistence in a local key-value store, session restore on start, and
// biometric re-login from saved credentials.
//
// Manager methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Mutating operations are serialized;
// subscribers observe every state transition in order.
//
// # Architecture boundaries
//
// goAttend is the public surface. It exposes [Manager], [Builder], [Config],
// [State] and value types (MetricsSnapshot, AuditEvent). Flow orchestration
// and audit dispatch live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Hold process-global session state; every Manager owns its own session.
//   - Surface backend logout failures to callers.
//   - Leave the in-memory session authenticated after a logout, whatever the
//     store reports.
package goAttend
