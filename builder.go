package goAttend

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAttend/backend"
	"github.com/MrEthical07/goAttend/biometric"
	"github.com/MrEthical07/goAttend/internal/audit"
	"github.com/MrEthical07/goAttend/internal/flows"
	"github.com/MrEthical07/goAttend/store"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goAttend APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store     store.KV
	backend   Backend
	biometric biometric.Authenticator
	logger    *slog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore supplies the persistent key-value store. Without it, Build opens
// the store named by Config.Storage.
func (b *Builder) WithStore(kv store.KV) *Builder {
	b.store = kv
	return b
}

// WithBackend supplies the remote auth endpoint. Without it, Build creates
// a backend.Client from Config.Backend.
func (b *Builder) WithBackend(be Backend) *Builder {
	b.backend = be
	return b
}

// WithBiometric supplies the biometric authenticator. Without it, Build
// creates a biometric.Command when Config.Biometric.Enabled is set.
func (b *Builder) WithBiometric(a biometric.Authenticator) *Builder {
	b.biometric = a
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides time.Now for token expiry checks and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and assembles a Manager. A Builder can
// be used once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	var closers []func() error

	// -------- KEY-VALUE STORE --------
	kv := b.store
	if kv == nil {
		opened, closer, err := openStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
		kv = opened
		if closer != nil {
			closers = append(closers, closer)
		}
	}
	if cfg.Credentials.SealIdentity != "" {
		sealed, err := store.NewSealed(kv, cfg.Credentials.SealIdentity, store.KeySavedPassword)
		if err != nil {
			return nil, fmt.Errorf("credentials seal: %w", err)
		}
		kv = sealed
	}

	// -------- BACKEND --------
	be := b.backend
	if be == nil {
		if cfg.Backend.BaseURL == "" {
			return nil, errors.New("backend required: set Backend.BaseURL or use WithBackend")
		}
		client, err := backend.New(backend.Config{
			BaseURL:      cfg.Backend.BaseURL,
			LoginPath:    cfg.Backend.LoginPath,
			ValidatePath: cfg.Backend.ValidatePath,
			LogoutPath:   cfg.Backend.LogoutPath,
			Timeout:      cfg.Backend.Timeout,
			UserAgent:    cfg.Backend.UserAgent,
		})
		if err != nil {
			return nil, err
		}
		be = client
	}

	// -------- BIOMETRIC --------
	auth := b.biometric
	if auth == nil && cfg.Biometric.Enabled {
		cmd := biometric.NewCommand(cfg.Biometric.Command, cfg.Biometric.Args...)
		if cfg.Biometric.Timeout > 0 {
			cmd.Timeout = cfg.Biometric.Timeout
		}
		auth = cmd
	}

	m := &Manager{
		config:    cfg,
		store:     kv,
		backend:   be,
		biometric: auth,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
		now:       now,
		closers:   closers,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	validate := flows.ValidateDeps{
		Backend:          be,
		LocalExpiryCheck: cfg.Token.LocalExpiryCheck,
		Leeway:           cfg.Token.ExpiryLeeway,
		Now:              now,
	}
	credentials := flows.CredentialDeps{Store: kv, Errors: flowErrors}
	m.flowDeps = flows.Deps{
		Restore:     flows.RestoreDeps{Store: kv, Validate: validate},
		Login:       flows.LoginDeps{Backend: be, Store: kv, Errors: flowErrors},
		Logout:      flows.LogoutDeps{Backend: be, Store: kv, NotifyBackend: cfg.Backend.NotifyLogout},
		Validate:    validate,
		Credentials: credentials,
		Biometric: flows.BiometricDeps{
			Authenticator: auth,
			Reason:        cfg.Biometric.PromptReason,
			Credentials:   credentials,
		},
	}

	b.built = true
	return m, nil
}

func openStore(cfg StorageConfig) (store.KV, func() error, error) {
	switch cfg.Driver {
	case StorageFile:
		kv, err := store.NewFile(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, nil, nil
	case StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return store.NewRedis(client, cfg.RedisPrefix), client.Close, nil
	default:
		return store.NewMemory(), nil, nil
	}
}
