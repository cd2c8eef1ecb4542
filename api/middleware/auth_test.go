package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgauth "github.com/khiels/storefront-backend/pkg/auth"
	"github.com/khiels/storefront-backend/pkg/config"
	"github.com/google/uuid"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "khiels-test",
		ExpirationMinutes: 60,
	}
}

func protectedHandler(t *testing.T, gotUser, gotEmail *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUser = UserNameFromContext(r.Context())
		*gotEmail = EmailFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthAcceptsValidToken(t *testing.T) {
	t.Parallel()

	cfg := jwtConfig()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		UserName: "minh",
		Email:    "minh@example.com",
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	var gotUser, gotEmail string
	handler := Auth(cfg, nil)(protectedHandler(t, &gotUser, &gotEmail))

	req := httptest.NewRequest(http.MethodPost, "/checkout/process", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if gotUser != "minh" || gotEmail != "minh@example.com" {
		t.Fatalf("identity = %q/%q", gotUser, gotEmail)
	}
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	t.Parallel()

	cfg := jwtConfig()
	var gotUser, gotEmail string
	handler := Auth(cfg, nil)(protectedHandler(t, &gotUser, &gotEmail))

	cases := map[string]string{
		"no header":   "",
		"empty token": "Bearer ",
		"garbage":     "Bearer not.a.jwt",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodPost, "/checkout/process", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	mintCfg := jwtConfig()
	mintCfg.Secret = "other-secret"
	token, err := pkgauth.MintAccessToken(mintCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		UserName: "minh",
		Email:    "minh@example.com",
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	var gotUser, gotEmail string
	handler := Auth(jwtConfig(), nil)(protectedHandler(t, &gotUser, &gotEmail))

	req := httptest.NewRequest(http.MethodPost, "/checkout/process", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
