package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, h http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	c, err := New(Config{BaseURL: srv.URL + "/"})
	if err != nil {
		srv.Close()
		t.Fatalf("new client: %v", err)
	}
	return c, srv.Close
}

func TestLoginReturnsToken(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("expected request id header")
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Email != "a@example.com" || body.Password != "pw-123456789" {
			t.Errorf("unexpected credentials %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	defer done()

	token, err := c.Login(context.Background(), "a@example.com", "pw-123456789")
	if err != nil || token != "tok-1" {
		t.Fatalf("expected tok-1, got %q err=%v", token, err)
	}
}

func TestLoginAcceptsAccessTokenAlias(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-2"})
	})
	defer done()

	token, err := c.Login(context.Background(), "a", "b")
	if err != nil || token != "tok-2" {
		t.Fatalf("expected tok-2, got %q err=%v", token, err)
	}
}

func TestLoginInvalidOutcomes(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"unauthorized": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"no token": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		},
		"malformed": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c, done := newTestServer(t, h)
			defer done()
			_, err := c.Login(context.Background(), "a", "b")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if errors.Is(err, ErrTransport) {
				t.Fatal("invalid credentials must not look like transport failure")
			}
		})
	}
}

func TestLoginTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Login(context.Background(), "a", "b"); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestValidateSendsBearer(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/validate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	defer done()

	if err := c.Validate(context.Background(), "good"); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if err := c.Validate(context.Background(), "bad"); !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected, got %v", err)
	}
}

func TestLogoutReportsStatus(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/logout" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	defer done()

	if err := c.Logout(context.Background(), "tok"); err == nil {
		t.Fatal("expected logout error on 502")
	}
}

func TestCustomPathsAndCancelledContext(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/api/v2/session" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, ValidatePath: "/api/v2/session"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Validate(context.Background(), "t"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Validate(ctx, "t"); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport for cancelled context, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected exactly one request to reach server, got %d", hits)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "  "}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}
