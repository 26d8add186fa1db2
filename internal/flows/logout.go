package flows

import (
	"context"

	"github.com/MrEthical07/goAttend/store"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Backend Backend
	Store   Store
	// NotifyBackend sends a best-effort logout request when a token is held.
	NotifyBackend bool
}

// LogoutResult reports what failed during logout. The caller clears the
// in-memory session regardless.
type LogoutResult struct {
	// RemoteErr is the backend notification failure. Never surfaced to users.
	RemoteErr error
	// StoreErr is the first persistent-store failure.
	StoreErr error
}

// RunLogout notifies the backend (best-effort), removes the persisted token
// and, when clearCredentials is set, the saved credentials and biometric flag.
func RunLogout(ctx context.Context, token string, clearCredentials bool, deps LogoutDeps) LogoutResult {
	var res LogoutResult
	if token != "" && deps.NotifyBackend && deps.Backend != nil {
		res.RemoteErr = deps.Backend.Logout(ctx, token)
	}

	res.StoreErr = deps.Store.Delete(ctx, store.KeyAuthToken)
	if clearCredentials {
		if err := DeleteCredentials(ctx, deps.Store); err != nil && res.StoreErr == nil {
			res.StoreErr = err
		}
	}
	return res
}
