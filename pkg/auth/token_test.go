package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/khiels/storefront-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "khiels-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	payload := AccessTokenPayload{
		UserID:   uuid.New(),
		UserName: "khachhang",
		Email:    "khach@example.com",
	}

	token, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserName != payload.UserName {
		t.Fatalf("user name mismatch: %s", claims.UserName)
	}
	if claims.Email != payload.Email {
		t.Fatalf("email mismatch: %s", claims.Email)
	}
	if claims.UserID != payload.UserID {
		t.Fatalf("user id mismatch: %s", claims.UserID)
	}
}

func TestMintRequiresIdentityFields(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Email: "a@b.c"}); err == nil {
		t.Fatal("expected error for missing user name")
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserName: "x"}); err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		UserID:   uuid.New(),
		UserName: "khachhang",
		Email:    "khach@example.com",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID:   uuid.New(),
		UserName: "khachhang",
		Email:    "khach@example.com",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected signature error")
	}
}
