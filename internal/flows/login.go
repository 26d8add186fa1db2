package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goAttend/backend"
	"github.com/MrEthical07/goAttend/jwt"
	"github.com/MrEthical07/goAttend/store"
)

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Backend Backend
	Store   Store
	Errors  Errors
}

// LoginResult is the outcome of a credential exchange.
type LoginResult struct {
	Token  string
	Claims jwt.Claims
	// Err is one of the host sentinels; Cause is the underlying failure.
	Err   error
	Cause error
	// CredentialsSaved reports whether saved credentials were written.
	CredentialsSaved bool
	// CredentialsErr is set when the token was persisted but saving the
	// credentials for biometric re-login failed.
	CredentialsErr error
}

// RunLogin exchanges credentials for a token, persists it, and optionally
// persists the credentials for later biometric re-login.
func RunLogin(ctx context.Context, email, password string, saveCredentials bool, deps LoginDeps) LoginResult {
	token, err := deps.Backend.Login(ctx, email, password)
	if err != nil {
		return LoginResult{Err: ClassifyLoginError(err, deps.Errors), Cause: err}
	}
	if strings.TrimSpace(token) == "" {
		return LoginResult{Err: deps.Errors.InvalidCredentials, Cause: backend.ErrInvalidCredentials}
	}

	if err := deps.Store.SetString(ctx, store.KeyAuthToken, token); err != nil {
		return LoginResult{Err: deps.Errors.Storage, Cause: err}
	}

	res := LoginResult{Token: token, Claims: inspect(token)}
	if saveCredentials {
		res.CredentialsErr = SaveCredentials(ctx, deps.Store, email, password)
		res.CredentialsSaved = res.CredentialsErr == nil
	}
	return res
}

// ClassifyLoginError maps a backend failure onto the host taxonomy: transport
// and context failures are connection errors, everything else means the
// credentials were not accepted.
func ClassifyLoginError(err error, errs Errors) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, backend.ErrTransport),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return errs.Connection
	default:
		return errs.InvalidCredentials
	}
}
