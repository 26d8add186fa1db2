package biometric

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable reports that no biometric capability exists on this device.
	ErrUnavailable = errors.New("biometric: unavailable")
	// ErrCancelled reports that the user dismissed or failed the prompt.
	ErrCancelled = errors.New("biometric: cancelled")
)

// Authenticator is the platform biometric capability.
type Authenticator interface {
	// Available reports whether a prompt can be shown at all.
	Available(ctx context.Context) (bool, error)
	// Prompt asks the user to confirm their identity. A nil error means the
	// user was verified; any failure is reported as ErrCancelled.
	Prompt(ctx context.Context, reason string) error
}

// Static is an Authenticator with a fixed outcome.
type Static struct {
	// Unavailable makes Available report false.
	Unavailable bool
	// Err is returned from Prompt. nil means success.
	Err error
}

func (s Static) Available(context.Context) (bool, error) {
	return !s.Unavailable, nil
}

func (s Static) Prompt(ctx context.Context, _ string) error {
	if s.Unavailable {
		return ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return ErrCancelled
	}
	return s.Err
}
