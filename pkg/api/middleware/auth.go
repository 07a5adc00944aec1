// Package middleware provides HTTP middleware for the Telebox admin API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/marmos91/telebox/pkg/api/auth"
)

type claimsKey struct{}

// GetClaimsFromContext returns the claims stored by JWTAuth, or nil.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// deny writes the admin API error envelope. It mirrors handlers.Response,
// which cannot be imported from here.
func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="telebox"`)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Error     string    `json:"error"`
	}{"error", time.Now().UTC(), msg})
}

// JWTAuth validates the bearer token and stores its claims in the request
// context. Missing or invalid tokens get a 401.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				deny(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			claims, err := jwtService.Validate(token)
			if err != nil {
				deny(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// RequireAdmin rejects tokens without the admin role. Must run after JWTAuth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			switch {
			case claims == nil:
				deny(w, http.StatusUnauthorized, "Authentication required")
			case !claims.IsAdmin():
				deny(w, http.StatusForbidden, "Admin access required")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
