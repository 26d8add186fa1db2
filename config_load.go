package goAttend

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig,
// e.g. ATTEND_BACKEND_BASE_URL.
const EnvPrefix = "ATTEND_"

// fileConfig is the on-disk TOML shape. Durations are strings ("10s") and
// booleans are pointers so an explicit false overrides a true default.
type fileConfig struct {
	Backend struct {
		BaseURL      string `toml:"base_url"`
		LoginPath    string `toml:"login_path"`
		ValidatePath string `toml:"validate_path"`
		LogoutPath   string `toml:"logout_path"`
		Timeout      string `toml:"timeout"`
		UserAgent    string `toml:"user_agent"`
		NotifyLogout *bool  `toml:"notify_logout"`
	} `toml:"backend"`
	Storage struct {
		Driver        string `toml:"driver"`
		Path          string `toml:"path"`
		RedisAddr     string `toml:"redis_addr"`
		RedisPassword string `toml:"redis_password"`
		RedisDB       *int   `toml:"redis_db"`
		RedisPrefix   string `toml:"redis_prefix"`
	} `toml:"storage"`
	Token struct {
		LocalExpiryCheck *bool  `toml:"local_expiry_check"`
		ExpiryLeeway     string `toml:"expiry_leeway"`
	} `toml:"token"`
	Biometric struct {
		Enabled      *bool    `toml:"enabled"`
		Command      string   `toml:"command"`
		Args         []string `toml:"args"`
		PromptReason string   `toml:"prompt_reason"`
		Timeout      string   `toml:"timeout"`
	} `toml:"biometric"`
	Credentials struct {
		SealIdentity string `toml:"seal_identity"`
	} `toml:"credentials"`
	Audit struct {
		Enabled    *bool `toml:"enabled"`
		BufferSize *int  `toml:"buffer_size"`
		DropIfFull *bool `toml:"drop_if_full"`
	} `toml:"audit"`
	Metrics struct {
		Enabled           *bool `toml:"enabled"`
		LatencyHistograms *bool `toml:"latency_histograms"`
	} `toml:"metrics"`
}

// LoadConfig builds a Config from DefaultConfig, the TOML file at path (if
// path is not empty) and ATTEND_* environment variables, in that order of
// precedence, and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = ParseConfig(data, cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig decodes TOML data over base. Unknown keys are rejected.
func ParseConfig(data []byte, base Config) (Config, error) {
	var fc fileConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("parse config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return mergeConfig(base, fc)
}

// mergeConfig returns base with every field set in fc applied on top.
func mergeConfig(base Config, fc fileConfig) (Config, error) {
	out := cloneConfig(base)

	setString(&out.Backend.BaseURL, fc.Backend.BaseURL)
	setString(&out.Backend.LoginPath, fc.Backend.LoginPath)
	setString(&out.Backend.ValidatePath, fc.Backend.ValidatePath)
	setString(&out.Backend.LogoutPath, fc.Backend.LogoutPath)
	setString(&out.Backend.UserAgent, fc.Backend.UserAgent)
	setBool(&out.Backend.NotifyLogout, fc.Backend.NotifyLogout)
	if err := setDuration(&out.Backend.Timeout, fc.Backend.Timeout, "backend.timeout"); err != nil {
		return Config{}, err
	}

	if fc.Storage.Driver != "" {
		out.Storage.Driver = StorageDriver(fc.Storage.Driver)
	}
	setString(&out.Storage.Path, fc.Storage.Path)
	setString(&out.Storage.RedisAddr, fc.Storage.RedisAddr)
	setString(&out.Storage.RedisPassword, fc.Storage.RedisPassword)
	setString(&out.Storage.RedisPrefix, fc.Storage.RedisPrefix)
	if fc.Storage.RedisDB != nil {
		out.Storage.RedisDB = *fc.Storage.RedisDB
	}

	setBool(&out.Token.LocalExpiryCheck, fc.Token.LocalExpiryCheck)
	if err := setDuration(&out.Token.ExpiryLeeway, fc.Token.ExpiryLeeway, "token.expiry_leeway"); err != nil {
		return Config{}, err
	}

	setBool(&out.Biometric.Enabled, fc.Biometric.Enabled)
	setString(&out.Biometric.Command, fc.Biometric.Command)
	setString(&out.Biometric.PromptReason, fc.Biometric.PromptReason)
	if len(fc.Biometric.Args) > 0 {
		out.Biometric.Args = append([]string(nil), fc.Biometric.Args...)
	}
	if err := setDuration(&out.Biometric.Timeout, fc.Biometric.Timeout, "biometric.timeout"); err != nil {
		return Config{}, err
	}

	setString(&out.Credentials.SealIdentity, fc.Credentials.SealIdentity)

	setBool(&out.Audit.Enabled, fc.Audit.Enabled)
	setBool(&out.Audit.DropIfFull, fc.Audit.DropIfFull)
	if fc.Audit.BufferSize != nil {
		out.Audit.BufferSize = *fc.Audit.BufferSize
	}

	setBool(&out.Metrics.Enabled, fc.Metrics.Enabled)
	setBool(&out.Metrics.EnableLatencyHistograms, fc.Metrics.LatencyHistograms)

	return out, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v, field string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", field, err)
	}
	*dst = d
	return nil
}
