package auth

import (
	"testing"
	"time"
)

func TestSignAndParseSession(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.SignSession("user-1", true)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := issuer.ParseSession(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || !claims.IsGuest {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseSessionRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).SignSession("user-1", false)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenIssuer("secret-b", time.Hour).ParseSession(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)

	token, err := issuer.SignSession("user-1", true)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := issuer.ParseSession(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
