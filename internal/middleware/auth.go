package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"podium/internal/auth"
	"podium/internal/httputil"
)

// Auth validates the bearer token and stashes the subject and tier in
// the request context. Requests without a valid token stop here.
func Auth(verifier auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			r = httputil.WithUserID(r, claims.Subject)
			if claims.Tier != "" {
				r = httputil.WithTier(r, claims.Tier)
			}
			next.ServeHTTP(w, r)
		})
	}
}
