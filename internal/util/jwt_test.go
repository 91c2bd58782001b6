package util

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestValidateJWT(t *testing.T) {
	tokenString := signToken(t, testSecret, Claims{
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := ValidateJWT(tokenString, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT returned error: %v", err)
	}
	if claims.Subject != "user_123" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	tokenString := signToken(t, "other-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_123"},
	})
	if _, err := ValidateJWT(tokenString, testSecret); err == nil {
		t.Fatal("expected error for token signed with wrong secret")
	}
}

func TestValidateJWTMissingSubject(t *testing.T) {
	tokenString := signToken(t, testSecret, Claims{Email: "user@example.com"})
	if _, err := ValidateJWT(tokenString, testSecret); err == nil {
		t.Fatal("expected error for token without subject")
	}
}

func TestValidateJWTExpired(t *testing.T) {
	tokenString := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	if _, err := ValidateJWT(tokenString, testSecret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestGenerateID(t *testing.T) {
	id := GenerateID("job")
	if !strings.HasPrefix(id, "job_") {
		t.Fatalf("expected job_ prefix, got %q", id)
	}
	if len(id) != len("job_")+12 {
		t.Fatalf("expected 12 hex chars after prefix, got %q", id)
	}
	if GenerateID("job") == id {
		t.Fatal("ids must not repeat")
	}
}
