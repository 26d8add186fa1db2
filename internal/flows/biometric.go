package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAttend/biometric"
)

// BiometricDeps captures biometric re-login dependencies.
type BiometricDeps struct {
	Authenticator biometric.Authenticator
	Reason        string
	Credentials   CredentialDeps
}

// RunBiometricGate checks for saved credentials, then for an available
// authenticator, then prompts. On success it returns the credentials to
// replay through the login flow.
func RunBiometricGate(ctx context.Context, deps BiometricDeps) (SavedCredentials, error) {
	errs := deps.Credentials.Errors

	creds, err := LoadCredentials(ctx, deps.Credentials)
	if err != nil {
		return SavedCredentials{}, err
	}

	if deps.Authenticator == nil {
		return SavedCredentials{}, errs.BiometricUnavailable
	}
	ok, err := deps.Authenticator.Available(ctx)
	if err != nil || !ok {
		return SavedCredentials{}, errs.BiometricUnavailable
	}

	if err := deps.Authenticator.Prompt(ctx, deps.Reason); err != nil {
		if errors.Is(err, biometric.ErrUnavailable) {
			return SavedCredentials{}, errs.BiometricUnavailable
		}
		return SavedCredentials{}, errs.BiometricCancelled
	}
	return creds, nil
}
