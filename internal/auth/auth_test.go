package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	userID := uuid.New()
	secret := "test-secret"

	token, err := GenerateAccessToken(userID, secret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	got, err := ParseAccessToken(token, secret)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if got != userID {
		t.Errorf("ParseAccessToken() = %v, want %v", got, userID)
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), "secret-a", 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := ParseAccessToken(token, "secret-b"); err == nil {
		t.Error("ParseAccessToken() with wrong secret should fail")
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := ParseAccessToken(token, "secret"); err == nil {
		t.Error("ParseAccessToken() with expired token should fail")
	}
}

func TestParseAccessToken_Garbage(t *testing.T) {
	if _, err := ParseAccessToken("not-a-jwt", "secret"); err == nil {
		t.Error("ParseAccessToken() with garbage should fail")
	}
}

func TestPassword_HashAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Error("VerifyPassword() with right password = false, want true")
	}
	if VerifyPassword(hash, "battery staple") {
		t.Error("VerifyPassword() with wrong password = true, want false")
	}
}
