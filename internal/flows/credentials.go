package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAttend/store"
)

// CredentialDeps captures saved-credential dependencies.
type CredentialDeps struct {
	Store  Store
	Errors Errors
}

// SavedCredentials are the email/password pair kept for biometric re-login.
type SavedCredentials struct {
	Email    string
	Password string
}

// SaveCredentials persists email and password and marks biometric login as
// enabled. The flag is written last so a partial write never advertises
// credentials that are not there.
func SaveCredentials(ctx context.Context, kv Store, email, password string) error {
	if err := kv.SetString(ctx, store.KeySavedEmail, email); err != nil {
		return err
	}
	if err := kv.SetString(ctx, store.KeySavedPassword, password); err != nil {
		return err
	}
	return kv.SetBool(ctx, store.KeyBiometricLoginEnabled, true)
}

// LoadCredentials returns the saved credentials. Absent or empty values map
// to Errors.NoSavedCredentials; an unreachable store maps to Errors.Storage.
func LoadCredentials(ctx context.Context, deps CredentialDeps) (SavedCredentials, error) {
	email, err := deps.Store.GetString(ctx, store.KeySavedEmail)
	if err != nil {
		return SavedCredentials{}, credentialReadError(err, deps.Errors)
	}
	password, err := deps.Store.GetString(ctx, store.KeySavedPassword)
	if err != nil {
		return SavedCredentials{}, credentialReadError(err, deps.Errors)
	}
	if email == "" || password == "" {
		return SavedCredentials{}, deps.Errors.NoSavedCredentials
	}
	return SavedCredentials{Email: email, Password: password}, nil
}

// HasCredentials reports whether both saved credential values are present.
func HasCredentials(ctx context.Context, deps CredentialDeps) bool {
	_, err := LoadCredentials(ctx, deps)
	return err == nil
}

// BiometricEnabled reports the persisted biometric_login_enabled flag.
func BiometricEnabled(ctx context.Context, kv Store) bool {
	v, err := kv.GetBool(ctx, store.KeyBiometricLoginEnabled)
	return err == nil && v
}

// DeleteCredentials removes saved credentials and the biometric flag. Every
// key is attempted; the first failure is returned.
func DeleteCredentials(ctx context.Context, kv Store) error {
	return deleteKeys(ctx, kv, store.KeySavedEmail, store.KeySavedPassword, store.KeyBiometricLoginEnabled)
}

// ClearPersisted removes the token, saved credentials and the biometric flag.
func ClearPersisted(ctx context.Context, kv Store) error {
	return deleteKeys(ctx, kv, store.KeyAuthToken, store.KeySavedEmail, store.KeySavedPassword, store.KeyBiometricLoginEnabled)
}

func deleteKeys(ctx context.Context, kv Store, keys ...string) error {
	var first error
	for _, k := range keys {
		if err := kv.Delete(ctx, k); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func credentialReadError(err error, errs Errors) error {
	if errors.Is(err, store.ErrNotFound) {
		return errs.NoSavedCredentials
	}
	return errs.Storage
}
