package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT("secret", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, RoleAdmin)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT("other-secret", token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseJWTExpired(t *testing.T) {
	token, err := GenerateJWT("secret", RoleAdmin, time.Nanosecond)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := ParseJWT("secret", token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestGenerateJWTDefaultExpiration(t *testing.T) {
	// Non-positive expiration falls back to a day, so the token is valid now.
	token, err := GenerateJWT("secret", RoleAdmin, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT("secret", token); err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
}
