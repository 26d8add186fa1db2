package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

const armorHeader = "-----BEGIN AGE ENCRYPTED FILE-----"

// Sealed wraps a KV and encrypts the values of selected keys with age
// before handing them to the inner store. Values of other keys pass through.
//
// Values written before sealing was enabled (no armor header) are returned
// unchanged so existing installations keep working until the next write.
type Sealed struct {
	inner    KV
	identity *age.X25519Identity
	keys     map[string]struct{}
}

// NewSealed returns a Sealed store. identity is an age X25519 secret key
// ("AGE-SECRET-KEY-1..."); keys lists the keys to encrypt.
func NewSealed(inner KV, identity string, keys ...string) (*Sealed, error) {
	if inner == nil {
		return nil, errors.New("store: sealed store requires inner store")
	}
	id, err := age.ParseX25519Identity(strings.TrimSpace(identity))
	if err != nil {
		return nil, fmt.Errorf("store: parse age identity: %w", err)
	}
	if len(keys) == 0 {
		return nil, errors.New("store: sealed store requires at least one key")
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &Sealed{inner: inner, identity: id, keys: set}, nil
}

// GenerateIdentity returns a fresh age X25519 secret key string.
func GenerateIdentity() (string, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Sealed) sealed(key string) bool {
	_, ok := s.keys[key]
	return ok
}

func (s *Sealed) GetString(ctx context.Context, key string) (string, error) {
	v, err := s.inner.GetString(ctx, key)
	if err != nil || !s.sealed(key) {
		return v, err
	}
	if !strings.HasPrefix(v, armorHeader) {
		return v, nil
	}
	return s.open(v)
}

func (s *Sealed) SetString(ctx context.Context, key, value string) error {
	if !s.sealed(key) {
		return s.inner.SetString(ctx, key, value)
	}
	ct, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.inner.SetString(ctx, key, ct)
}

func (s *Sealed) GetBool(ctx context.Context, key string) (bool, error) {
	return s.inner.GetBool(ctx, key)
}

func (s *Sealed) SetBool(ctx context.Context, key string, value bool) error {
	return s.inner.SetBool(ctx, key, value)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *Sealed) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

func (s *Sealed) seal(plain string) (string, error) {
	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)
	w, err := age.Encrypt(aw, s.identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("store: seal: %w", err)
	}
	if _, err := io.WriteString(w, plain); err != nil {
		return "", fmt.Errorf("store: seal: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("store: seal: %w", err)
	}
	if err := aw.Close(); err != nil {
		return "", fmt.Errorf("store: seal: %w", err)
	}
	return buf.String(), nil
}

func (s *Sealed) open(ct string) (string, error) {
	r, err := age.Decrypt(armor.NewReader(strings.NewReader(ct)), s.identity)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return string(plain), nil
}
