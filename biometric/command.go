package biometric

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

const defaultPromptTimeout = 30 * time.Second

// Command runs an external verifier. Exit status 0 means the user was
// verified; any other exit is a cancellation. The verifier is considered
// unavailable when the binary cannot be found in PATH.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration

	lookPath func(string) (string, error)
}

// NewCommand returns a Command for the given verifier binary.
func NewCommand(path string, args ...string) *Command {
	return &Command{Path: path, Args: args, Timeout: defaultPromptTimeout}
}

func (c *Command) resolve() (string, error) {
	if c.Path == "" {
		return "", ErrUnavailable
	}
	look := c.lookPath
	if look == nil {
		look = exec.LookPath
	}
	p, err := look(c.Path)
	if err != nil {
		return "", ErrUnavailable
	}
	return p, nil
}

func (c *Command) Available(context.Context) (bool, error) {
	if _, err := c.resolve(); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Command) Prompt(ctx context.Context, _ string) error {
	bin, err := c.resolve()
	if err != nil {
		return err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultPromptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, c.Args...)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: verifier exited with %d", ErrCancelled, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return nil
}
