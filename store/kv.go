package store

import (
	"context"
	"errors"
	"strconv"
)

// Keys used by the session manager.
const (
	KeyAuthToken             = "auth_token"
	KeySavedEmail            = "saved_email"
	KeySavedPassword         = "saved_password"
	KeyBiometricLoginEnabled = "biometric_login_enabled"
)

var (
	// ErrNotFound is returned when a key is absent.
	ErrNotFound = errors.New("store: key not found")
	// ErrUnavailable is returned when the backing medium cannot be reached.
	ErrUnavailable = errors.New("store: unavailable")
	// ErrInvalidValue is returned when a stored value cannot be decoded as the requested type.
	ErrInvalidValue = errors.New("store: invalid value")
)

// KV is the minimal string/bool key-value contract the session manager needs.
//
// Implementations must be safe for concurrent use.
type KV interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

func parseBool(s string) (bool, error) {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, ErrInvalidValue
	}
	return v, nil
}
