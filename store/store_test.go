package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.GetString(ctx, KeyAuthToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if err := kv.SetString(ctx, KeyAuthToken, "tok-1"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	got, err := kv.GetString(ctx, KeyAuthToken)
	if err != nil || got != "tok-1" {
		t.Fatalf("expected tok-1, got %q err=%v", got, err)
	}

	if err := kv.SetBool(ctx, KeyBiometricLoginEnabled, true); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	b, err := kv.GetBool(ctx, KeyBiometricLoginEnabled)
	if err != nil || !b {
		t.Fatalf("expected true, got %v err=%v", b, err)
	}

	if err := kv.SetString(ctx, KeySavedEmail, "not-a-bool"); err != nil {
		t.Fatalf("set email: %v", err)
	}
	if _, err := kv.GetBool(ctx, KeySavedEmail); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}

	if err := kv.Delete(ctx, KeyAuthToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := kv.Delete(ctx, KeyAuthToken); err != nil {
		t.Fatalf("second delete must be idempotent: %v", err)
	}
	if _, err := kv.GetString(ctx, KeyAuthToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := kv.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := kv.GetString(ctx, KeySavedEmail); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestMemoryZeroValueUsable(t *testing.T) {
	var m Memory
	exerciseKV(t, &m)
	if err := m.SetString(context.Background(), KeySavedEmail, "a@b.c"); err != nil {
		t.Fatalf("set after clear: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected one key, got %d", m.Len())
	}
}

func TestFileStoreContract(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "nested", "session.json"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseKV(t, f)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first, _ := NewFile(path)
	if err := first.SetString(ctx, KeyAuthToken, "persisted"); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, _ := NewFile(path)
	got, err := second.GetString(ctx, KeyAuthToken)
	if err != nil || got != "persisted" {
		t.Fatalf("expected persisted token, got %q err=%v", got, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f, _ := NewFile(path)
	if _, err := f.GetString(context.Background(), KeyAuthToken); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for corrupt document, got %v", err)
	}
}

func TestNewFileRequiresPath(t *testing.T) {
	if _, err := NewFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func newRedisStoreTest(t *testing.T, prefix string) (*Redis, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedis(rdb, prefix), rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisStoreContract(t *testing.T) {
	kv, _, done := newRedisStoreTest(t, "")
	defer done()
	exerciseKV(t, kv)
}

func TestRedisClearOnlyTouchesPrefix(t *testing.T) {
	kv, rdb, done := newRedisStoreTest(t, "dev1")
	defer done()
	ctx := context.Background()

	if err := rdb.Set(ctx, "other:auth_token", "keep", 0).Err(); err != nil {
		t.Fatalf("seed foreign key: %v", err)
	}
	if err := kv.SetString(ctx, KeyAuthToken, "drop"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := rdb.Get(ctx, "dev1:auth_token").Result(); got != "drop" {
		t.Fatalf("expected prefixed key, got %q", got)
	}

	if err := kv.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, err := rdb.Get(ctx, "other:auth_token").Result(); err != nil || got != "keep" {
		t.Fatalf("foreign key must survive clear, got %q err=%v", got, err)
	}
	if n, _ := rdb.Exists(ctx, "dev1:auth_token").Result(); n != 0 {
		t.Fatal("expected prefixed key removed by clear")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	kv, _, done := newRedisStoreTest(t, "x")
	done()
	if _, err := kv.GetString(context.Background(), KeyAuthToken); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable with closed redis, got %v", err)
	}
}

func TestSealedStoreEncryptsSelectedKeys(t *testing.T) {
	ctx := context.Background()
	identity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	inner := NewMemory()
	sealed, err := NewSealed(inner, identity, KeySavedPassword)
	if err != nil {
		t.Fatalf("new sealed: %v", err)
	}
	exerciseKV(t, sealed)

	if err := sealed.SetString(ctx, KeySavedPassword, "hunter2-hunter2"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := sealed.SetString(ctx, KeySavedEmail, "a@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}

	raw, _ := inner.GetString(ctx, KeySavedPassword)
	if !strings.HasPrefix(raw, armorHeader) || strings.Contains(raw, "hunter2") {
		t.Fatalf("expected armored ciphertext in inner store, got %q", raw)
	}
	rawEmail, _ := inner.GetString(ctx, KeySavedEmail)
	if rawEmail != "a@example.com" {
		t.Fatalf("unsealed key must pass through, got %q", rawEmail)
	}

	got, err := sealed.GetString(ctx, KeySavedPassword)
	if err != nil || got != "hunter2-hunter2" {
		t.Fatalf("expected round trip, got %q err=%v", got, err)
	}
}

func TestSealedStoreReadsLegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	identity, _ := GenerateIdentity()
	inner := NewMemory()
	_ = inner.SetString(ctx, KeySavedPassword, "legacy-password")

	sealed, err := NewSealed(inner, identity, KeySavedPassword)
	if err != nil {
		t.Fatalf("new sealed: %v", err)
	}
	got, err := sealed.GetString(ctx, KeySavedPassword)
	if err != nil || got != "legacy-password" {
		t.Fatalf("expected legacy plaintext passthrough, got %q err=%v", got, err)
	}
}

func TestSealedStoreWrongIdentity(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	idA, _ := GenerateIdentity()
	idB, _ := GenerateIdentity()

	a, _ := NewSealed(inner, idA, KeySavedPassword)
	b, _ := NewSealed(inner, idB, KeySavedPassword)
	if err := a.SetString(ctx, KeySavedPassword, "secret-value"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := b.GetString(ctx, KeySavedPassword); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue with foreign identity, got %v", err)
	}
}

func TestNewSealedValidation(t *testing.T) {
	if _, err := NewSealed(nil, "x", KeySavedPassword); err == nil {
		t.Fatal("expected error for nil inner store")
	}
	if _, err := NewSealed(NewMemory(), "not-an-identity", KeySavedPassword); err == nil {
		t.Fatal("expected error for malformed identity")
	}
	id, _ := GenerateIdentity()
	if _, err := NewSealed(NewMemory(), id); err == nil {
		t.Fatal("expected error when no keys are sealed")
	}
}
