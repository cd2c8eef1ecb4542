package middleware

import (
	"net/http"
	"strings"

	"github.com/khiels/storefront-backend/api/responses"
	pkgauth "github.com/khiels/storefront-backend/pkg/auth"
	"github.com/khiels/storefront-backend/pkg/config"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// customer identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.UserName == "" || claims.Email == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "incomplete identity"))
				return
			}

			ctx := WithIdentity(r.Context(), claims.UserName, claims.Email)
			if logg != nil {
				ctx = logg.WithUserName(ctx, claims.UserName)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
