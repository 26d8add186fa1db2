// Package biometric abstracts the platform capability used to confirm the
// device owner before saved credentials are replayed.
//
// [Command] shells out to a local verifier (for example fprintd-verify on
// Linux); [Static] returns a fixed outcome and is meant for tests and
// development builds.
package biometric
