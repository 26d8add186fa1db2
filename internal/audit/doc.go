// Package audit implements async delivery of session-lifecycle events
// (login, logout, restore, biometric re-login, resets) to a caller-supplied sink.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured record with timestamp, type, subject, outcome, metadata.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the session manager does that.
//   - Record credentials or tokens in events.
//   - Import goAttend or any sibling internal package.
package audit
