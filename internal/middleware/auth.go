package middleware

import (
	"net/http"
	"strings"

	"teamhub/internal/auth"
	"teamhub/internal/httputil"
)

// realtimePrefix marks routes whose clients cannot set headers (EventSource,
// browser WebSocket) and therefore pass the token as ?access_token=
const realtimePrefix = "/api/realtime/"

// publicPaths skip authentication entirely
var publicPaths = map[string]bool{
	"/health": true,
}

// AuthMiddleware verifies the Supabase access token and stores the claims on
// the request. Preflight requests and public paths pass through untouched.
func AuthMiddleware(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" && strings.HasPrefix(r.URL.Path, realtimePrefix) {
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithClaims(r, claims))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
