// Package backend is the HTTP client for the remote authentication endpoint
// consumed by the session manager.
//
// # Contract
//
//   - POST {base}/auth/login with JSON {"email","password"} returns 200 and a JSON
//     body carrying "token" (or "access_token"). Any other status, or a body
//     without a token, is an invalid-credentials outcome.
//   - GET {base}/auth/validate with a bearer token; any 2xx means valid.
//   - POST {base}/auth/logout with a bearer token; best effort.
//
// Transport failures (DNS, refused connections, timeouts, context
// cancellation) are reported as [ErrTransport] so callers can tell them apart
// from a backend that answered "no".
package backend
