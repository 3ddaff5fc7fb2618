// Package auth issues and verifies bearer tokens and hashes user passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds signer parameters.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Enabled reports whether tokens can be issued and verified.
func (c Config) Enabled() bool {
	return c.Secret != ""
}

// Claims represents the payload extracted from a JWT.
type Claims struct {
	Subject     string
	Name        string
	AccessLevel string
	ExpiresAt   time.Time
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// tokenClaims is the signed payload.
type tokenClaims struct {
	Name        string `json:"name,omitempty"`
	AccessLevel string `json:"access_level,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs an HS256 token for the given user identity.
func Issue(cfg Config, subject, name, accessLevel string, now time.Time) (string, time.Time, error) {
	if !cfg.Enabled() {
		return "", time.Time{}, errors.New("token signing secret not configured")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	expiresAt := now.Add(ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Name:        name,
		AccessLevel: accessLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer and expiry and returns the claims.
func Parse(token string, cfg Config) (*Claims, error) {
	if token = strings.TrimSpace(token); token == "" {
		return nil, ErrMissingToken
	}

	var payload tokenClaims
	_, err := jwt.ParseWithClaims(token, &payload, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	},
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if payload.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Claims{
		Subject:     payload.Subject,
		Name:        payload.Name,
		AccessLevel: payload.AccessLevel,
		ExpiresAt:   payload.ExpiresAt.Time,
	}, nil
}
