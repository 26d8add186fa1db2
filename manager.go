package goAttend

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAttend/biometric"
	"github.com/MrEthical07/goAttend/internal/audit"
	"github.com/MrEthical07/goAttend/internal/flows"
	"github.com/MrEthical07/goAttend/store"
)

// Manager owns one authentication session. Build it with [New].
//
// Mutating operations (Restore, Login, Logout, AuthenticateWithBiometrics,
// Refresh, ClearState) are serialized: overlapping calls queue rather than
// interleave. Subscribers are called synchronously after each state change,
// in order, outside the state lock. A subscriber must not call a mutating
// operation synchronously; read-only methods (State, TokenValid,
// HasSavedCredentials) are fine.
type Manager struct {
	config    Config
	store     store.KV
	backend   Backend
	biometric biometric.Authenticator
	logger    *slog.Logger
	audit     *audit.Dispatcher
	metrics   *Metrics
	flowDeps  flows.Deps
	now       func() time.Time
	closers   []func() error

	opMu     sync.Mutex
	notifyMu sync.Mutex

	mu      sync.Mutex
	state   State
	subs    []subscriber
	nextSub uint64

	closed atomic.Bool
}

type subscriber struct {
	id uint64
	fn func(State)
}

var flowErrors = flows.Errors{
	InvalidCredentials:   ErrInvalidCredentials,
	Connection:           ErrConnection,
	Storage:              ErrStorage,
	NoSavedCredentials:   ErrNoSavedCredentials,
	BiometricUnavailable: ErrBiometricUnavailable,
	BiometricCancelled:   ErrBiometricCancelled,
}

func (m *Manager) ready() error {
	if m == nil || m.closed.Load() {
		return ErrManagerNotReady
	}
	return nil
}

// State returns the current session snapshot.
func (m *Manager) State() State {
	if m == nil {
		return State{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to receive every changed snapshot. fn is not called
// with the current state.
func (m *Manager) Subscribe(fn func(State)) Subscription {
	if m == nil || fn == nil {
		return Subscription{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSub++
	m.subs = append(m.subs, subscriber{id: m.nextSub, fn: fn})
	return Subscription{id: m.nextSub}
}

// Unsubscribe removes a listener. Unknown or zero subscriptions are ignored.
func (m *Manager) Unsubscribe(sub Subscription) {
	if m == nil || sub.id == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs = slices.DeleteFunc(m.subs, func(s subscriber) bool {
		return s.id == sub.id
	})
}

// transition applies fn to the session under the state lock and, when the
// snapshot changed, delivers it to subscribers. notifyMu keeps deliveries in
// transition order.
func (m *Manager) transition(fn func(*State)) State {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	prev := m.state
	fn(&m.state)
	next := m.state
	var listeners []func(State)
	if !prev.Equal(next) {
		listeners = make([]func(State), 0, len(m.subs))
		for _, s := range m.subs {
			listeners = append(listeners, s.fn)
		}
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Restore recovers the persisted session. A missing token or an unreadable
// store yields an initialized, unauthenticated session; a stored token that
// the backend refuses is deleted. Subscribers see a single transition.
func (m *Manager) Restore(ctx context.Context) State {
	if err := m.ready(); err != nil {
		return m.State()
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	res := flows.RunRestore(ctx, m.flowDeps.Restore)
	if res.Remote {
		m.metrics.Observe(MetricValidateLatency, res.Latency)
	}

	switch res.Outcome {
	case flows.RestoreAuthenticated:
		m.metrics.Inc(MetricRestoreAuthenticated)
	case flows.RestoreRejected:
		m.metrics.Inc(MetricRestoreRejected)
		m.logger.Info("goAttend: stored token rejected, session cleared", "err", res.ValidateErr)
		if res.DeleteErr != nil {
			m.metrics.Inc(MetricStorageFailure)
			m.logger.Warn("goAttend: failed to delete rejected token", "err", res.DeleteErr)
		}
	default:
		m.metrics.Inc(MetricRestoreEmpty)
		if res.ReadErr != nil {
			m.logger.Warn("goAttend: token store unreadable, starting logged out", "err", res.ReadErr)
		}
	}

	m.emitAudit(ctx, auditEventRestore, res.Outcome == flows.RestoreAuthenticated, res.Claims.Subject, nil, func() map[string]string {
		return map[string]string{"outcome": res.Outcome.String()}
	})

	return m.transition(func(s *State) {
		s.Initialized = true
		s.Loading = false
		s.Err = nil
		if res.Outcome == flows.RestoreAuthenticated {
			s.Token = res.Token
			s.Authenticated = true
			s.Subject = res.Claims.Subject
			s.ExpiresAt = res.Claims.ExpiresAt
			return
		}
		clearSession(s)
	})
}

// Login exchanges email and password for a token and persists it. The
// returned error is also stored in State.Err. A failed attempt ends any
// session held before it: the backend is told (best-effort) and the
// persisted token is removed. Login does not set State.Initialized; call
// Restore first at startup.
func (m *Manager) Login(ctx context.Context, email, password string, opts ...LoginOption) error {
	if err := m.ready(); err != nil {
		return err
	}
	var o loginOptions
	for _, opt := range opts {
		opt(&o)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	return m.login(ctx, email, password, o.saveBiometrics, "password")
}

func (m *Manager) login(ctx context.Context, email, password string, saveCredentials bool, method string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		m.transition(func(s *State) {
			s.Err = ErrValidation
		})
		return ErrValidation
	}

	prev := m.transition(func(s *State) {
		s.Loading = true
		s.Err = nil
	})

	res := flows.RunLogin(ctx, email, password, saveCredentials, m.flowDeps.Login)
	if res.Err != nil {
		// A rejected login ends the previous session on the backend and on disk.
		end := flows.RunLogout(ctx, prev.Token, false, m.flowDeps.Logout)
		if end.RemoteErr != nil {
			m.logger.Warn("goAttend: backend logout of previous session failed", "err", end.RemoteErr)
		}
		if end.StoreErr != nil {
			m.metrics.Inc(MetricStorageFailure)
			m.logger.Error("goAttend: failed to remove previous session token", "err", end.StoreErr)
		}
		switch {
		case errors.Is(res.Err, ErrConnection):
			m.metrics.Inc(MetricLoginConnectionError)
		case errors.Is(res.Err, ErrStorage):
			m.metrics.Inc(MetricStorageFailure)
		default:
			m.metrics.Inc(MetricLoginFailure)
		}
		m.logger.Info("goAttend: login failed", "method", method, "err", res.Err, "cause", res.Cause)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", res.Err, func() map[string]string {
			return map[string]string{"method": method}
		})

		m.transition(func(s *State) {
			clearSession(s)
			s.Loading = false
			s.Err = res.Err
		})
		return res.Err
	}

	if res.CredentialsErr != nil {
		m.metrics.Inc(MetricStorageFailure)
		m.logger.Warn("goAttend: failed to save credentials for biometric login", "err", res.CredentialsErr)
	}
	m.metrics.Inc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLoginSuccess, true, res.Claims.Subject, nil, func() map[string]string {
		md := map[string]string{"method": method}
		if saveCredentials {
			md["credentials_saved"] = boolString(res.CredentialsSaved)
		}
		return md
	})

	m.transition(func(s *State) {
		s.Loading = false
		s.Err = nil
		s.Token = res.Token
		s.Authenticated = true
		s.Subject = res.Claims.Subject
		s.ExpiresAt = res.Claims.ExpiresAt
	})
	return nil
}

// Logout ends the session. The backend is notified best-effort; its failure
// is logged and never returned. The in-memory session is always cleared;
// a persistent-store failure is reported as ErrStorage.
func (m *Manager) Logout(ctx context.Context, opts ...LogoutOption) error {
	if err := m.ready(); err != nil {
		return err
	}
	var o logoutOptions
	for _, opt := range opts {
		opt(&o)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	return m.logout(ctx, o.clearBiometric, "user")
}

// logout expects opMu to be held.
func (m *Manager) logout(ctx context.Context, clearCredentials bool, reason string) error {
	prev := m.State()

	m.transition(func(s *State) {
		s.Loading = true
		s.Err = nil
	})

	res := flows.RunLogout(ctx, prev.Token, clearCredentials, m.flowDeps.Logout)
	if res.RemoteErr != nil {
		m.logger.Warn("goAttend: backend logout notification failed", "err", res.RemoteErr)
	}

	var err error
	if res.StoreErr != nil {
		err = ErrStorage
		m.metrics.Inc(MetricStorageFailure)
		m.logger.Error("goAttend: failed to remove persisted session", "err", res.StoreErr)
	}

	m.metrics.Inc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, err == nil, prev.Subject, err, func() map[string]string {
		return map[string]string{
			"reason":              reason,
			"credentials_cleared": boolString(clearCredentials),
		}
	})

	m.transition(func(s *State) {
		clearSession(s)
		s.Loading = false
		s.Err = err
	})
	return err
}

// AuthenticateWithBiometrics replays saved credentials after a successful
// biometric prompt. Failures before the login step only set State.Err.
func (m *Manager) AuthenticateWithBiometrics(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	creds, err := flows.RunBiometricGate(ctx, m.flowDeps.Biometric)
	if err != nil {
		m.metrics.Inc(MetricBiometricFailure)
		m.logger.Info("goAttend: biometric login stopped", "err", err)
		m.emitAudit(ctx, auditEventBiometricFailure, false, "", err, nil)

		m.transition(func(s *State) {
			s.Err = err
		})
		return err
	}

	m.metrics.Inc(MetricBiometricSuccess)
	return m.login(ctx, creds.Email, creds.Password, false, "biometric")
}

// TokenValid asks the backend whether the held token is still accepted.
// It returns false without a token and on any failure, including transport
// errors. It does not change the session.
func (m *Manager) TokenValid(ctx context.Context) bool {
	if m.ready() != nil {
		return false
	}

	res := flows.RunValidate(ctx, m.State().Token, m.flowDeps.Validate)
	if res.Remote {
		m.metrics.Observe(MetricValidateLatency, res.Latency)
	}
	if !res.Valid && res.Err != nil {
		m.logger.Debug("goAttend: token not valid", "remote", res.Remote, "err", res.Err)
	}
	return res.Valid
}

// Refresh logs out when the held token is no longer valid. Saved
// credentials are kept.
func (m *Manager) Refresh(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	st := m.State()
	if st.Token == "" || m.TokenValid(ctx) {
		return nil
	}

	m.metrics.Inc(MetricRefreshRevoked)
	m.logger.Info("goAttend: token no longer valid, logging out")
	m.emitAudit(ctx, auditEventRefreshRevoked, true, st.Subject, nil, nil)
	return m.logout(ctx, false, "revoked")
}

// ClearState wipes the in-memory session and every persisted key, and marks
// the session as not initialized.
func (m *Manager) ClearState(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	var err error
	if cerr := flows.ClearPersisted(ctx, m.store); cerr != nil {
		err = ErrStorage
		m.metrics.Inc(MetricStorageFailure)
		m.logger.Error("goAttend: failed to clear persisted state", "err", cerr)
	}

	m.metrics.Inc(MetricStateReset)
	m.emitAudit(ctx, auditEventStateReset, err == nil, "", err, nil)

	m.transition(func(s *State) {
		*s = State{Err: err}
	})
	return err
}

// HasSavedCredentials reports whether credentials for biometric login are
// persisted.
func (m *Manager) HasSavedCredentials(ctx context.Context) bool {
	if m.ready() != nil {
		return false
	}
	return flows.HasCredentials(ctx, m.flowDeps.Credentials)
}

// BiometricLoginEnabled reports the persisted biometric opt-in flag.
func (m *Manager) BiometricLoginEnabled(ctx context.Context) bool {
	if m.ready() != nil {
		return false
	}
	return flows.BiometricEnabled(ctx, m.store)
}

// MetricsSnapshot returns a copy of the Manager's counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return m.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped because the
// dispatcher buffer was full.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// Close waits for an in-flight operation, stops the audit dispatcher and
// releases resources opened by Build. Later operations fail with
// ErrManagerNotReady.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.audit.Close()
	for _, c := range m.closers {
		if err := c(); err != nil {
			m.logger.Warn("goAttend: close failed", "err", err)
		}
	}
}

func clearSession(s *State) {
	s.Token = ""
	s.Authenticated = false
	s.Subject = ""
	s.ExpiresAt = time.Time{}
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
