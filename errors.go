package goAttend

import "errors"

// Error values carry the taxonomy code as their message so they can be shown
// or logged verbatim. Use [Describe] for human-readable text.
var (
	// ErrInvalidCredentials is returned when the backend answered without a token.
	ErrInvalidCredentials = errors.New("invalid_credentials")
	// ErrConnection is returned when the backend could not be reached.
	ErrConnection = errors.New("connection_error")
	// ErrBiometricUnavailable is returned when the device has no usable biometric capability.
	ErrBiometricUnavailable = errors.New("biometric_unavailable")
	// ErrNoSavedCredentials is returned when biometric login is requested without saved credentials.
	ErrNoSavedCredentials = errors.New("no_saved_credentials")
	// ErrBiometricCancelled is returned when the user dismissed or failed the prompt.
	ErrBiometricCancelled = errors.New("biometric_cancelled")
	// ErrValidation is returned for malformed input such as an empty email.
	ErrValidation = errors.New("validation_error")
	// ErrStorage is returned when the persistent store rejected a write or delete.
	ErrStorage = errors.New("storage_error")
	// ErrManagerNotReady is returned when a Manager method is called on a nil
	// or closed Manager.
	ErrManagerNotReady = errors.New("manager_not_ready")
)

// Describe returns user-facing text for err. Unknown errors yield a generic
// message; nil yields "".
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrConnection):
		return "Could not reach the server. Check your connection and try again."
	case errors.Is(err, ErrBiometricUnavailable):
		return "Biometric authentication is not available on this device."
	case errors.Is(err, ErrNoSavedCredentials):
		return "No saved credentials. Log in with your email and password first."
	case errors.Is(err, ErrBiometricCancelled):
		return "Biometric authentication was cancelled."
	case errors.Is(err, ErrValidation):
		return "Please fill in all required fields."
	case errors.Is(err, ErrStorage):
		return "Could not update local storage."
	case errors.Is(err, ErrManagerNotReady):
		return "Session is not ready."
	default:
		return "Something went wrong."
	}
}
