// Package guard decides which screen a session belongs on and protects the
// local status endpoints of the terminal front-end.
//
// Guards are a navigation aid, not a security boundary: they only read the
// Manager's published state.
package guard
