package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAttend/jwt"
	"github.com/MrEthical07/goAttend/store"
)

var errExpiredLocally = errors.New("token expired")

// RestoreOutcome classifies how a restore finished.
type RestoreOutcome int

const (
	// RestoreEmpty means no token was persisted (or the store could not be read).
	RestoreEmpty RestoreOutcome = iota
	// RestoreAuthenticated means the persisted token was accepted.
	RestoreAuthenticated
	// RestoreRejected means the persisted token was refused and removed.
	RestoreRejected
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreAuthenticated:
		return "authenticated"
	case RestoreRejected:
		return "rejected"
	default:
		return "empty"
	}
}

// RestoreDeps captures session restore dependencies.
type RestoreDeps struct {
	Store    Store
	Validate ValidateDeps
}

// RestoreResult is the session recovered from persistent storage.
type RestoreResult struct {
	Outcome RestoreOutcome
	Token   string
	Claims  jwt.Claims
	// Remote is true when the backend was consulted; Latency is only
	// meaningful then.
	Remote  bool
	Latency time.Duration
	// ReadErr is set when the store could not be read; the session is treated
	// as empty.
	ReadErr error
	// ValidateErr is the reason a persisted token was rejected.
	ValidateErr error
	// DeleteErr is set when a rejected token could not be removed.
	DeleteErr error
}

// RunRestore reads the persisted token and validates it against the backend.
// A token that fails validation for any reason is removed from storage.
func RunRestore(ctx context.Context, deps RestoreDeps) RestoreResult {
	token, err := deps.Store.GetString(ctx, store.KeyAuthToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RestoreResult{Outcome: RestoreEmpty}
		}
		return RestoreResult{Outcome: RestoreEmpty, ReadErr: err}
	}
	if token == "" {
		return RestoreResult{Outcome: RestoreEmpty}
	}

	v := RunValidate(ctx, token, deps.Validate)
	if v.Valid {
		return RestoreResult{
			Outcome: RestoreAuthenticated,
			Token:   token,
			Claims:  inspect(token),
			Remote:  v.Remote,
			Latency: v.Latency,
		}
	}

	return RestoreResult{
		Outcome:     RestoreRejected,
		Remote:      v.Remote,
		Latency:     v.Latency,
		ValidateErr: v.Err,
		DeleteErr:   deps.Store.Delete(ctx, store.KeyAuthToken),
	}
}
