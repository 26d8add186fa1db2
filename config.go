package goAttend

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines a public type used by goAttend APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Backend     BackendConfig     `envPrefix:"BACKEND_"`
	Storage     StorageConfig     `envPrefix:"STORAGE_"`
	Token       TokenConfig       `envPrefix:"TOKEN_"`
	Biometric   BiometricConfig   `envPrefix:"BIOMETRIC_"`
	Credentials CredentialsConfig `envPrefix:"CREDENTIALS_"`
	Audit       AuditConfig       `envPrefix:"AUDIT_"`
	Metrics     MetricsConfig     `envPrefix:"METRICS_"`
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig describes the remote auth endpoint.
type BackendConfig struct {
	BaseURL      string        `env:"BASE_URL"`
	LoginPath    string        `env:"LOGIN_PATH"`
	ValidatePath string        `env:"VALIDATE_PATH"`
	LogoutPath   string        `env:"LOGOUT_PATH"`
	Timeout      time.Duration `env:"TIMEOUT"`
	UserAgent    string        `env:"USER_AGENT"`
	// NotifyLogout sends a best-effort logout request to the backend.
	NotifyLogout bool `env:"NOTIFY_LOGOUT"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageDriver selects the persistent key-value store built by Builder
// when no store is supplied.
type StorageDriver string

const (
	StorageMemory StorageDriver = "memory"
	StorageFile   StorageDriver = "file"
	StorageRedis  StorageDriver = "redis"
)

// StorageConfig selects and configures the persistent key-value store.
type StorageConfig struct {
	Driver StorageDriver `env:"DRIVER"`
	// Path is the JSON document used by the file driver.
	Path string `env:"PATH"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	RedisPrefix   string `env:"REDIS_PREFIX"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls client-side token handling.
type TokenConfig struct {
	// LocalExpiryCheck rejects JWTs whose exp has passed without asking the
	// backend. Opaque tokens are always validated remotely.
	LocalExpiryCheck bool          `env:"LOCAL_EXPIRY_CHECK"`
	ExpiryLeeway     time.Duration `env:"EXPIRY_LEEWAY"`
}

/*
====================================
BIOMETRIC CONFIG
====================================
*/

// BiometricConfig configures the external biometric helper built by Builder
// when no authenticator is supplied.
type BiometricConfig struct {
	Enabled bool `env:"ENABLED"`
	// Command is the helper executable, e.g. fprintd-verify.
	Command      string        `env:"COMMAND"`
	Args         []string      `env:"ARGS" envSeparator:" "`
	PromptReason string        `env:"PROMPT_REASON"`
	Timeout      time.Duration `env:"TIMEOUT"`
}

/*
====================================
CREDENTIALS CONFIG
====================================
*/

// CredentialsConfig controls how saved credentials are kept at rest.
type CredentialsConfig struct {
	// SealIdentity is an age X25519 identity (AGE-SECRET-KEY-1...). When set,
	// the saved password is stored encrypted to its recipient.
	SealIdentity string `env:"SEAL_IDENTITY"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by goAttend APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig defines a public type used by goAttend APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

// DefaultConfig returns the defaults used by New. BaseURL is left empty and
// must be set unless a Backend is supplied to the Builder.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			LoginPath:    "/auth/login",
			ValidatePath: "/auth/validate",
			LogoutPath:   "/auth/logout",
			Timeout:      10 * time.Second,
			UserAgent:    "goAttend",
			NotifyLogout: true,
		},
		Storage: StorageConfig{
			Driver:      StorageMemory,
			RedisPrefix: "attend",
		},
		Token: TokenConfig{
			ExpiryLeeway: 30 * time.Second,
		},
		Biometric: BiometricConfig{
			PromptReason: "Log in to Attendance",
			Timeout:      30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Biometric.Args != nil {
		out.Biometric.Args = append([]string(nil), cfg.Biometric.Args...)
	}
	return out
}

// Validate checks cfg for values the Manager cannot work with.
func (c *Config) Validate() error {
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("Backend BaseURL must be an absolute http(s) URL")
		}
	}
	for _, p := range []string{c.Backend.LoginPath, c.Backend.ValidatePath, c.Backend.LogoutPath} {
		if p != "" && !strings.HasPrefix(p, "/") {
			return errors.New("Backend paths must start with '/'")
		}
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("Backend Timeout must be > 0")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("Storage Path is required for the file driver")
		}
	case StorageRedis:
		if strings.TrimSpace(c.Storage.RedisAddr) == "" {
			return errors.New("Storage RedisAddr is required for the redis driver")
		}
		if c.Storage.RedisDB < 0 {
			return errors.New("Storage RedisDB must be >= 0")
		}
	default:
		return errors.New("Storage Driver must be 'memory', 'file' or 'redis'")
	}

	if c.Token.ExpiryLeeway < 0 || c.Token.ExpiryLeeway > 5*time.Minute {
		return errors.New("Token ExpiryLeeway must be between 0 and 5m")
	}

	if c.Biometric.Enabled && strings.TrimSpace(c.Biometric.Command) == "" {
		return errors.New("Biometric Command is required when biometric is enabled")
	}
	if c.Biometric.Timeout < 0 {
		return errors.New("Biometric Timeout must be >= 0")
	}

	if c.Credentials.SealIdentity != "" && !strings.HasPrefix(c.Credentials.SealIdentity, "AGE-SECRET-KEY-1") {
		return errors.New("Credentials SealIdentity must be an age X25519 identity")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}
