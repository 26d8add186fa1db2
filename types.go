package goAttend

import (
	"context"
	"time"
)

// State is a snapshot of the session owned by a Manager.
type State struct {
	// Token is the bearer token, empty when absent.
	Token string
	// Authenticated is true iff a token is held and was last validated.
	Authenticated bool
	// Initialized is true once Restore has completed.
	Initialized bool
	// Loading is true while a login or logout is in flight.
	Loading bool
	// Err is the error of the last operation, nil on success.
	Err error

	// Subject and ExpiresAt are decoded from the token when it is a JWT.
	// They are unverified and for display only.
	Subject   string
	ExpiresAt time.Time
}

// Equal reports whether s and o describe the same session.
func (s State) Equal(o State) bool {
	return s.Token == o.Token &&
		s.Authenticated == o.Authenticated &&
		s.Initialized == o.Initialized &&
		s.Loading == o.Loading &&
		s.Err == o.Err &&
		s.Subject == o.Subject &&
		s.ExpiresAt.Equal(o.ExpiresAt)
}

// Subscription identifies a registered listener.
type Subscription struct {
	id uint64
}

// Backend is the remote auth endpoint. Implementations must wrap
// network-level failures with backend.ErrTransport so they are reported as
// ErrConnection.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Validate(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) error
}

type loginOptions struct {
	saveBiometrics bool
}

// LoginOption customizes Login.
type LoginOption func(*loginOptions)

// WithSaveBiometrics persists the credentials for later biometric login
// when enabled.
func WithSaveBiometrics(enabled bool) LoginOption {
	return func(o *loginOptions) {
		o.saveBiometrics = enabled
	}
}

type logoutOptions struct {
	clearBiometric bool
}

// LogoutOption customizes Logout.
type LogoutOption func(*logoutOptions)

// WithClearBiometricCredentials also removes saved credentials and the
// biometric flag.
func WithClearBiometricCredentials(enabled bool) LogoutOption {
	return func(o *logoutOptions) {
		o.clearBiometric = enabled
	}
}
