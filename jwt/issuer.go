package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the algorithm used by an Issuer.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// IssuerConfig configures an Issuer.
type IssuerConfig struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	// PrivateKey is the HMAC secret for HS256, or an ed25519 private key
	// (raw 64 bytes or PEM) for Ed25519.
	PrivateKey []byte
	// PublicKey is required for Ed25519 verification (raw 32 bytes or PEM).
	PublicKey []byte
	Issuer    string
	Leeway    time.Duration
}

// Issuer signs and verifies access tokens.
type Issuer struct {
	config IssuerConfig
	now    func() time.Time
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case "", MethodHS256:
		cfg.SigningMethod = MethodHS256
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	return &Issuer{config: cfg, now: time.Now}, nil
}

// Issue signs a token for subject and returns it with its claims.
func (i *Issuer) Issue(subject string) (string, Claims, error) {
	now := i.now()
	rc := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    i.config.Issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.config.TTL)),
	}

	key, err := i.signKey()
	if err != nil {
		return "", Claims{}, err
	}
	signed, err := jwt.NewWithClaims(i.method(), rc).SignedString(key)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, fromRegistered(rc), nil
}

// Verify checks the signature, algorithm, issuer and expiry of token.
func (i *Issuer) Verify(token string) (Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	var rc jwt.RegisteredClaims
	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &rc, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != i.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return i.verifyKey()
	})
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	return fromRegistered(rc), nil
}

func (i *Issuer) method() jwt.SigningMethod {
	if i.config.SigningMethod == MethodEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func (i *Issuer) signKey() (interface{}, error) {
	if i.config.SigningMethod == MethodEd25519 {
		return parseEdPrivateKey(i.config.PrivateKey)
	}
	return i.config.PrivateKey, nil
}

func (i *Issuer) verifyKey() (interface{}, error) {
	if i.config.SigningMethod == MethodEd25519 {
		return parseEdPublicKey(i.config.PublicKey)
	}
	return i.config.PrivateKey, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
