// Package jwt reads and issues the bearer tokens exchanged with the
// attendance backend.
//
// [Inspect] decodes claims without verifying the signature. The client never
// holds the backend's keys, so inspected claims are for display and local
// expiry hints only and must never be used to grant access.
//
// [Issuer] signs and verifies tokens and is used by the reference backend in
// internal/devserver.
package jwt
