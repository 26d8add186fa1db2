package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goAttend/jwt"
)

// Store is the subset of store.KV the flows need.
type Store interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
	Delete(ctx context.Context, key string) error
}

// Backend is the remote auth endpoint.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Validate(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) error
}

// Errors carries the host package's sentinel errors so flows can classify
// failures without importing the root package.
type Errors struct {
	InvalidCredentials   error
	Connection           error
	Storage              error
	NoSavedCredentials   error
	BiometricUnavailable error
	BiometricCancelled   error
}

// Deps groups flow dependency sets. The Manager builds this once and delegates
// operations to the matching flow implementation.
type Deps struct {
	Restore     RestoreDeps
	Login       LoginDeps
	Logout      LogoutDeps
	Validate    ValidateDeps
	Credentials CredentialDeps
	Biometric   BiometricDeps
}

// inspect decodes token claims when the token is a JWT. Opaque tokens yield
// zero claims.
func inspect(token string) jwt.Claims {
	claims, err := jwt.Inspect(token)
	if err != nil {
		return jwt.Claims{}
	}
	return claims
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
