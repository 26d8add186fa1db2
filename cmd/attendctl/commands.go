package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goAttend "github.com/MrEthical07/goAttend"
	"github.com/MrEthical07/goAttend/guard"
	"github.com/MrEthical07/goAttend/metrics/export/prometheus"
	"golang.org/x/term"
)

type command func(ctx context.Context, a *app, m *goAttend.Manager) int

var commands = map[string]command{
	"status":    cmdStatus,
	"login":     cmdLogin,
	"logout":    cmdLogout,
	"validate":  cmdValidate,
	"refresh":   cmdRefresh,
	"biometric": cmdBiometric,
	"reset":     cmdReset,
	"serve":     cmdServe,
}

func cmdStatus(ctx context.Context, a *app, m *goAttend.Manager) int {
	s := m.Restore(ctx)
	a.printState(s)
	fmt.Fprintf(a.out, "saved credentials: %t (biometric login %t)\n",
		m.HasSavedCredentials(ctx), m.BiometricLoginEnabled(ctx))
	if s.Err != nil {
		return 1
	}
	return 0
}

func cmdLogin(ctx context.Context, a *app, m *goAttend.Manager) int {
	m.Restore(ctx)
	stop := guard.Watch(m, func(d guard.Destination) {
		fmt.Fprintf(a.errOut, "-> %s\n", d)
	})
	defer stop()

	email := a.opts.email
	if email == "" {
		var err error
		if email, err = a.prompt("Email: "); err != nil {
			return a.fail(err)
		}
	}
	pw, err := a.readPassword("Password: ")
	if err != nil {
		return a.fail(err)
	}

	if err := m.Login(ctx, email, pw, goAttend.WithSaveBiometrics(a.opts.saveBiometrics)); err != nil {
		return a.fail(err)
	}
	a.printState(m.State())
	return 0
}

func cmdLogout(ctx context.Context, a *app, m *goAttend.Manager) int {
	m.Restore(ctx)
	if err := m.Logout(ctx, goAttend.WithClearBiometricCredentials(a.opts.forget)); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "logged out")
	return 0
}

func cmdValidate(ctx context.Context, a *app, m *goAttend.Manager) int {
	s := m.Restore(ctx)
	if !s.Authenticated {
		fmt.Fprintln(a.out, "no session")
		return 1
	}
	if !m.TokenValid(ctx) {
		fmt.Fprintln(a.out, "token rejected")
		return 1
	}
	fmt.Fprintln(a.out, "token valid")
	return 0
}

func cmdRefresh(ctx context.Context, a *app, m *goAttend.Manager) int {
	m.Restore(ctx)
	if err := m.Refresh(ctx); err != nil {
		return a.fail(err)
	}
	a.printState(m.State())
	return 0
}

func cmdBiometric(ctx context.Context, a *app, m *goAttend.Manager) int {
	m.Restore(ctx)
	if err := m.AuthenticateWithBiometrics(ctx); err != nil {
		return a.fail(err)
	}
	a.printState(m.State())
	return 0
}

func cmdReset(ctx context.Context, a *app, m *goAttend.Manager) int {
	if err := m.ClearState(ctx); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "session state cleared")
	return 0
}

func cmdServe(ctx context.Context, a *app, m *goAttend.Manager) int {
	m.Restore(ctx)

	srv := &http.Server{
		Addr:              a.opts.listen,
		Handler:           statusHandler(m),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("attendctl: serving", "addr", a.opts.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return a.fail(err)
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return a.fail(err)
	}
	return 0
}

// statusHandler serves GET /status for an authenticated session and
// GET /metrics unconditionally.
func statusHandler(m *goAttend.Manager) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /status", guard.Require(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := guard.StateFromContext(r.Context())
		body := map[string]any{
			"route":   guard.Decide(s).String(),
			"subject": s.Subject,
		}
		if !s.ExpiresAt.IsZero() {
			body["expires_at"] = s.ExpiresAt.UTC().Format(time.RFC3339)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})))
	mux.Handle("GET /metrics", prometheus.NewExporter(m).Handler())
	return mux
}

func (a *app) printState(s goAttend.State) {
	fmt.Fprintf(a.out, "route: %s\n", guard.Decide(s))
	if s.Authenticated {
		if s.Subject != "" {
			fmt.Fprintf(a.out, "user: %s\n", s.Subject)
		}
		if !s.ExpiresAt.IsZero() {
			fmt.Fprintf(a.out, "expires: %s (in %s)\n", s.ExpiresAt.Format(time.RFC3339), time.Until(s.ExpiresAt).Round(time.Second))
		}
	}
	if s.Err != nil {
		fmt.Fprintf(a.out, "error: %s\n", goAttend.Describe(s.Err))
	}
}

func (a *app) printMetrics(m *goAttend.Manager) {
	fmt.Fprintln(a.out)
	fmt.Fprint(a.out, prometheus.NewExporter(m).Render())
}

func (a *app) fail(err error) int {
	fmt.Fprintf(a.errOut, "attendctl: %s\n", goAttend.Describe(err))
	return 1
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.errOut, label)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) readPassword(label string) (string, error) {
	if a.tty == nil || !term.IsTerminal(int(a.tty.Fd())) {
		return a.prompt(label)
	}
	fmt.Fprint(a.errOut, label)
	b, err := term.ReadPassword(int(a.tty.Fd()))
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
