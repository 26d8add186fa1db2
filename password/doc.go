// Package password hashes and verifies passwords with Argon2id for the
// reference backend.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The session client never hashes passwords itself; it forwards them to the
// backend over TLS.
package password
