package flows

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrEthical07/goAttend/backend"
	"github.com/MrEthical07/goAttend/biometric"
	"github.com/MrEthical07/goAttend/jwt"
	"github.com/MrEthical07/goAttend/store"
)

var testErrs = Errors{
	InvalidCredentials:   errors.New("invalid_credentials"),
	Connection:           errors.New("connection_error"),
	Storage:              errors.New("storage_error"),
	NoSavedCredentials:   errors.New("no_saved_credentials"),
	BiometricUnavailable: errors.New("biometric_unavailable"),
	BiometricCancelled:   errors.New("biometric_cancelled"),
}

type fakeBackend struct {
	token       string
	loginErr    error
	validateErr error
	logoutErr   error

	validateCalls int
	logoutCalls   int
}

func (b *fakeBackend) Login(context.Context, string, string) (string, error) {
	return b.token, b.loginErr
}

func (b *fakeBackend) Validate(context.Context, string) error {
	b.validateCalls++
	return b.validateErr
}

func (b *fakeBackend) Logout(context.Context, string) error {
	b.logoutCalls++
	return b.logoutErr
}

type failingStore struct {
	*store.Memory
	failSet    bool
	failGet    bool
	failDelete bool
}

func (s *failingStore) GetString(ctx context.Context, key string) (string, error) {
	if s.failGet {
		return "", store.ErrUnavailable
	}
	return s.Memory.GetString(ctx, key)
}

func (s *failingStore) SetString(ctx context.Context, key, value string) error {
	if s.failSet {
		return store.ErrUnavailable
	}
	return s.Memory.SetString(ctx, key, value)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	if s.failDelete {
		return store.ErrUnavailable
	}
	return s.Memory.Delete(ctx, key)
}

func TestRunRestoreOutcomes(t *testing.T) {
	ctx := context.Background()

	kv := store.NewMemory()
	res := RunRestore(ctx, RestoreDeps{Store: kv, Validate: ValidateDeps{Backend: &fakeBackend{}}})
	if res.Outcome != RestoreEmpty || res.ReadErr != nil {
		t.Fatalf("expected empty restore, got %+v", res)
	}

	_ = kv.SetString(ctx, store.KeyAuthToken, "tok")
	res = RunRestore(ctx, RestoreDeps{Store: kv, Validate: ValidateDeps{Backend: &fakeBackend{}}})
	if res.Outcome != RestoreAuthenticated || res.Token != "tok" {
		t.Fatalf("expected authenticated restore, got %+v", res)
	}

	res = RunRestore(ctx, RestoreDeps{Store: kv, Validate: ValidateDeps{Backend: &fakeBackend{validateErr: backend.ErrTokenRejected}}})
	if res.Outcome != RestoreRejected || !errors.Is(res.ValidateErr, backend.ErrTokenRejected) {
		t.Fatalf("expected rejected restore, got %+v", res)
	}
	if _, err := kv.GetString(ctx, store.KeyAuthToken); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("rejected token must be removed, got %v", err)
	}
}

func TestRunRestoreUnreadableStoreIsEmpty(t *testing.T) {
	kv := &failingStore{Memory: store.NewMemory(), failGet: true}
	b := &fakeBackend{}
	res := RunRestore(context.Background(), RestoreDeps{Store: kv, Validate: ValidateDeps{Backend: b}})
	if res.Outcome != RestoreEmpty || !errors.Is(res.ReadErr, store.ErrUnavailable) {
		t.Fatalf("expected empty with read error, got %+v", res)
	}
	if b.validateCalls != 0 {
		t.Fatal("backend must not be called without a token")
	}
}

func TestRunLoginClassifiesErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		b    *fakeBackend
		want error
	}{
		{"rejected", &fakeBackend{loginErr: fmt.Errorf("%w: status 401", backend.ErrInvalidCredentials)}, testErrs.InvalidCredentials},
		{"empty token", &fakeBackend{}, testErrs.InvalidCredentials},
		{"transport", &fakeBackend{loginErr: fmt.Errorf("%w: dial tcp", backend.ErrTransport)}, testErrs.Connection},
		{"deadline", &fakeBackend{loginErr: context.DeadlineExceeded}, testErrs.Connection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kv := store.NewMemory()
			res := RunLogin(ctx, "a@b.c", "pw", true, LoginDeps{Backend: tc.b, Store: kv, Errors: testErrs})
			if res.Err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, res.Err)
			}
			if kv.Len() != 0 {
				t.Fatal("failed login must not persist anything")
			}
		})
	}
}

func TestRunLoginPersistsTokenAndCredentials(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	res := RunLogin(ctx, "a@b.c", "pw", true, LoginDeps{Backend: &fakeBackend{token: "tok"}, Store: kv, Errors: testErrs})
	if res.Err != nil || res.Token != "tok" || !res.CredentialsSaved {
		t.Fatalf("unexpected result %+v", res)
	}
	if v, _ := kv.GetString(ctx, store.KeyAuthToken); v != "tok" {
		t.Fatalf("token not persisted: %q", v)
	}
	if !BiometricEnabled(ctx, kv) {
		t.Fatal("biometric flag not set")
	}
	creds, err := LoadCredentials(ctx, CredentialDeps{Store: kv, Errors: testErrs})
	if err != nil || creds.Email != "a@b.c" || creds.Password != "pw" {
		t.Fatalf("unexpected saved credentials %+v, %v", creds, err)
	}
}

func TestRunLoginDecodesJWTClaims(t *testing.T) {
	iss, err := jwt.NewIssuer(jwt.IssuerConfig{TTL: time.Hour, PrivateKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	tok, _, err := iss.Issue("user-7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	res := RunLogin(context.Background(), "a", "b", false, LoginDeps{Backend: &fakeBackend{token: tok}, Store: store.NewMemory(), Errors: testErrs})
	if res.Claims.Subject != "user-7" {
		t.Fatalf("expected subject user-7, got %q", res.Claims.Subject)
	}
}

func TestRunLoginStoreFailure(t *testing.T) {
	kv := &failingStore{Memory: store.NewMemory(), failSet: true}
	res := RunLogin(context.Background(), "a", "b", false, LoginDeps{Backend: &fakeBackend{token: "tok"}, Store: kv, Errors: testErrs})
	if res.Err != testErrs.Storage || res.Token != "" {
		t.Fatalf("expected storage error, got %+v", res)
	}
}

func TestRunLogout(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	_ = kv.SetString(ctx, store.KeyAuthToken, "tok")
	_ = SaveCredentials(ctx, kv, "a", "b")

	b := &fakeBackend{logoutErr: backend.ErrTransport}
	res := RunLogout(ctx, "tok", false, LogoutDeps{Backend: b, Store: kv, NotifyBackend: true})
	if res.StoreErr != nil || !errors.Is(res.RemoteErr, backend.ErrTransport) || b.logoutCalls != 1 {
		t.Fatalf("unexpected logout result %+v calls=%d", res, b.logoutCalls)
	}
	if !HasCredentials(ctx, CredentialDeps{Store: kv, Errors: testErrs}) {
		t.Fatal("credentials must survive a plain logout")
	}

	res = RunLogout(ctx, "", true, LogoutDeps{Backend: b, Store: kv, NotifyBackend: true})
	if res.StoreErr != nil || b.logoutCalls != 1 {
		t.Fatalf("no backend call expected without token: %+v", res)
	}
	if kv.Len() != 0 {
		t.Fatalf("expected empty store, %d keys remain", kv.Len())
	}
}

func TestRunLogoutStoreFailure(t *testing.T) {
	kv := &failingStore{Memory: store.NewMemory(), failDelete: true}
	res := RunLogout(context.Background(), "tok", true, LogoutDeps{Store: kv})
	if !errors.Is(res.StoreErr, store.ErrUnavailable) {
		t.Fatalf("expected store error, got %+v", res)
	}
}

func TestRunValidateLocalExpiry(t *testing.T) {
	iss, err := jwt.NewIssuer(jwt.IssuerConfig{TTL: time.Minute, PrivateKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	tok, _, err := iss.Issue("u")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	b := &fakeBackend{}
	later := func() time.Time { return time.Now().Add(time.Hour) }
	res := RunValidate(context.Background(), tok, ValidateDeps{Backend: b, LocalExpiryCheck: true, Now: later})
	if res.Valid || res.Remote || b.validateCalls != 0 {
		t.Fatalf("expected local rejection, got %+v calls=%d", res, b.validateCalls)
	}

	res = RunValidate(context.Background(), tok, ValidateDeps{Backend: b, LocalExpiryCheck: true})
	if !res.Valid || !res.Remote {
		t.Fatalf("expected remote validation, got %+v", res)
	}

	res = RunValidate(context.Background(), "", ValidateDeps{Backend: b})
	if res.Valid || res.Remote {
		t.Fatalf("empty token must be invalid without a call, got %+v", res)
	}
}

func TestRunBiometricGateOrder(t *testing.T) {
	ctx := context.Background()

	empty := store.NewMemory()
	_, err := RunBiometricGate(ctx, BiometricDeps{
		Authenticator: biometric.Static{Unavailable: true},
		Credentials:   CredentialDeps{Store: empty, Errors: testErrs},
	})
	if err != testErrs.NoSavedCredentials {
		t.Fatalf("missing credentials must be checked first, got %v", err)
	}

	saved := store.NewMemory()
	_ = SaveCredentials(ctx, saved, "a", "b")
	deps := CredentialDeps{Store: saved, Errors: testErrs}

	if _, err := RunBiometricGate(ctx, BiometricDeps{Credentials: deps}); err != testErrs.BiometricUnavailable {
		t.Fatalf("nil authenticator: got %v", err)
	}
	if _, err := RunBiometricGate(ctx, BiometricDeps{Authenticator: biometric.Static{Unavailable: true}, Credentials: deps}); err != testErrs.BiometricUnavailable {
		t.Fatalf("unavailable: got %v", err)
	}
	if _, err := RunBiometricGate(ctx, BiometricDeps{Authenticator: biometric.Static{Err: biometric.ErrCancelled}, Credentials: deps}); err != testErrs.BiometricCancelled {
		t.Fatalf("cancelled: got %v", err)
	}
	if _, err := RunBiometricGate(ctx, BiometricDeps{Authenticator: biometric.Static{Err: errors.New("sensor fault")}, Credentials: deps}); err != testErrs.BiometricCancelled {
		t.Fatalf("prompt failure: got %v", err)
	}

	creds, err := RunBiometricGate(ctx, BiometricDeps{Authenticator: biometric.Static{}, Credentials: deps})
	if err != nil || creds.Email != "a" || creds.Password != "b" {
		t.Fatalf("expected credentials, got %+v %v", creds, err)
	}
}

func TestClearPersisted(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	_ = kv.SetString(ctx, store.KeyAuthToken, "tok")
	_ = SaveCredentials(ctx, kv, "a", "b")
	_ = kv.SetString(ctx, "unrelated", "keep")

	if err := ClearPersisted(ctx, kv); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if kv.Len() != 1 {
		t.Fatalf("only the unrelated key should remain, have %d", kv.Len())
	}
}
