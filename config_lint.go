package goAttend

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintHigh:
		return "HIGH"
	case LintWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

// LintWarning is a configuration that is valid but probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of warnings returned by Config.Lint.
type LintResult []LintWarning

func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing every warning at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports settings that pass Validate but weaken the session.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if u, err := url.Parse(c.Backend.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		add("backend_plain_http", LintHigh, "credentials and tokens are sent unencrypted to a non-loopback host")
	}
	if c.Backend.Timeout > 30*time.Second {
		add("backend_timeout_long", LintInfo, "login and restore may hang for a long time on a bad network")
	}
	if !c.Backend.NotifyLogout {
		add("logout_notify_disabled", LintInfo, "tokens stay valid on the backend after logout")
	}

	if c.Storage.Driver == StorageMemory {
		add("storage_memory", LintInfo, "the session is lost when the process exits")
	}

	if c.Biometric.Enabled && c.Credentials.SealIdentity == "" {
		add("credentials_plaintext", LintWarn, "saved passwords for biometric login are stored unencrypted")
	}
	if c.Biometric.Enabled && c.Biometric.Timeout > 0 && c.Biometric.Timeout < 5*time.Second {
		add("biometric_timeout_short", LintWarn, "users may not finish the prompt in time")
	}

	if !c.Token.LocalExpiryCheck {
		add("local_expiry_disabled", LintInfo, "expired JWTs are only detected by the backend")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "session lifecycle events are not recorded")
	}
	return ws
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
