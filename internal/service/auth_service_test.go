package service

import (
	"errors"
	"testing"
	"time"

	"github.com/servimatch/skilltest-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret-do-not-use-in-production",
		JWTExpiry: time.Hour,
	}
}

func TestProviderTokenRoundTrip(t *testing.T) {
	auth := NewAuthService(testConfig())

	token, err := auth.GenerateProviderToken(42)
	if err != nil {
		t.Fatalf("GenerateProviderToken: %v", err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ProviderID != 42 {
		t.Errorf("provider id = %d, want 42", claims.ProviderID)
	}
	if claims.Role != RoleProvider {
		t.Errorf("role = %q, want %q", claims.Role, RoleProvider)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	auth := NewAuthService(testConfig())

	token, err := auth.GenerateProviderToken(7)
	if err != nil {
		t.Fatalf("GenerateProviderToken: %v", err)
	}

	if _, err := auth.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token err = %v, want ErrInvalidToken", err)
	}

	// A token signed with a different secret must not validate.
	other := NewAuthService(&config.Config{JWTSecret: "different-secret", JWTExpiry: time.Hour})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong-secret err = %v, want ErrInvalidToken", err)
	}

	// An expired token must not validate.
	expired := NewAuthService(&config.Config{JWTSecret: "test-secret-do-not-use-in-production", JWTExpiry: -time.Hour})
	tok, err := expired.GenerateProviderToken(7)
	if err != nil {
		t.Fatalf("GenerateProviderToken: %v", err)
	}
	if _, err := auth.ValidateToken(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token err = %v, want ErrInvalidToken", err)
	}
}
