// Package flows contains pure-function orchestrators for every Manager operation.
//
// Each flow function (RunRestore, RunLogin, RunLogout, RunValidate, ...) accepts
// a typed dependency struct and returns a result value. Flows never touch the
// in-memory session; the Manager applies results to its state and notifies
// subscribers.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the key-value store and the remote auth
// endpoint. They do NOT own either resource; ownership stays with the Manager.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAttend (to avoid import cycles).
//   - Log or emit metrics; results carry enough detail for the caller to do so.
package flows
