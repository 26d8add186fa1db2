package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAttend/jwt"
	"github.com/MrEthical07/goAttend/password"
)

// Config configures a Server.
type Config struct {
	// Secret is the HS256 signing key. Required.
	Secret   []byte
	TokenTTL time.Duration
	Issuer   string
	Password password.Config
	// Revocations defaults to an in-memory set.
	Revocations Revocations
	Logger      *slog.Logger
}

// Stats counts requests per endpoint.
type Stats struct {
	Login    int64
	Validate int64
	Logout   int64
}

// Server implements POST /auth/login, GET /auth/validate and
// POST /auth/logout.
type Server struct {
	hasher  *password.Hasher
	issuer  *jwt.Issuer
	revoked Revocations
	logger  *slog.Logger

	mu    sync.RWMutex
	users map[string]string

	loginCalls    atomic.Int64
	validateCalls atomic.Int64
	logoutCalls   atomic.Int64
}

// New builds a Server.
func New(cfg Config) (*Server, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("devserver: secret required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.Password == (password.Config{}) {
		cfg.Password = password.DefaultConfig()
	}

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{
		TTL:           cfg.TokenTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    cfg.Secret,
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return nil, err
	}

	revoked := cfg.Revocations
	if revoked == nil {
		revoked = newMemoryRevocations()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		hasher:  hasher,
		issuer:  issuer,
		revoked: revoked,
		logger:  logger,
		users:   make(map[string]string),
	}, nil
}

// AddUser registers email with password, replacing any previous entry.
func (s *Server) AddUser(email, pw string) error {
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.users[normalizeEmail(email)] = hash
	s.mu.Unlock()
	return nil
}

// Revoke invalidates token as if the user had logged out elsewhere.
func (s *Server) Revoke(ctx context.Context, token string) error {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return err
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt)
}

func (s *Server) Stats() Stats {
	return Stats{
		Login:    s.loginCalls.Load(),
		Validate: s.validateCalls.Load(),
		Logout:   s.logoutCalls.Load(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/validate", s.handleValidate)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	return mux
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	email := normalizeEmail(body.Email)
	s.mu.RLock()
	hash, ok := s.users[email]
	s.mu.RUnlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_credentials"})
		return
	}
	match, err := s.hasher.Verify(body.Password, hash)
	if err != nil || !match {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_credentials"})
		return
	}

	token, claims, err := s.issuer.Issue(email)
	if err != nil {
		s.logger.Error("devserver: issue token", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		return
	}
	s.logger.Info("devserver: login", "subject", email, "jti", claims.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.validateCalls.Add(1)

	claims, ok := s.authenticate(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sub": claims.Subject})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.logoutCalls.Add(1)

	claims, ok := s.authenticate(r)
	if ok {
		if err := s.revoked.Revoke(r.Context(), claims.ID, claims.ExpiresAt); err != nil {
			s.logger.Error("devserver: revoke", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
			return
		}
		s.logger.Info("devserver: logout", "subject", claims.Subject, "jti", claims.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authenticate(r *http.Request) (jwt.Claims, bool) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return jwt.Claims{}, false
	}
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return jwt.Claims{}, false
	}
	revoked, err := s.revoked.Revoked(r.Context(), claims.ID)
	if err != nil {
		s.logger.Error("devserver: revocation lookup", "err", err)
		return jwt.Claims{}, false
	}
	return claims, !revoked
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
