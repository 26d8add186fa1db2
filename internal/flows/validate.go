package flows

import (
	"context"
	"time"
)

// ValidateDeps captures token validation dependencies.
type ValidateDeps struct {
	Backend Backend
	// LocalExpiryCheck rejects JWTs whose exp has passed without a network call.
	LocalExpiryCheck bool
	Leeway           time.Duration
	Now              func() time.Time
}

// ValidateResult reports whether a token is still usable.
type ValidateResult struct {
	Valid bool
	// Remote is true when the backend was consulted.
	Remote  bool
	Latency time.Duration
	// Err is the underlying cause when Valid is false. Nil for an empty token.
	Err error
}

// RunValidate checks token against the backend. Transport failures are
// reported as invalid; the cause is kept in Err for logging.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) ValidateResult {
	if token == "" {
		return ValidateResult{}
	}

	if deps.LocalExpiryCheck {
		claims := inspect(token)
		if claims.Expired(nowOr(deps.Now), deps.Leeway) {
			return ValidateResult{Err: errExpiredLocally}
		}
	}

	start := nowOr(deps.Now)
	err := deps.Backend.Validate(ctx, token)
	latency := nowOr(deps.Now).Sub(start)
	if err != nil {
		return ValidateResult{Remote: true, Latency: latency, Err: err}
	}
	return ValidateResult{Valid: true, Remote: true, Latency: latency}
}
