package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers expired, malformed and mis-signed session tokens.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the payload carried by the short-lived session credential.
// The guest token cookie, not this credential, is the durable identity anchor.
type SessionClaims struct {
	IsGuest bool `json:"guest"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session credentials.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer for session credentials with the given TTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL reports the configured session credential lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// SignSession issues a session credential for the user.
func (i *TokenIssuer) SignSession(userID string, isGuest bool) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		IsGuest: isGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// ParseSession verifies a session credential and returns its claims.
func (i *TokenIssuer) ParseSession(token string) (SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return *claims, nil
}
