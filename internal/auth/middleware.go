package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue keys are compared by type AND value. With a plain string
// key, any package that guesses the string can read or shadow the value. A
// package-private type makes collisions impossible: only this package can
// construct the key.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the bearer token from the Authorization header, validates it, and
// stores the decoded *Claims in the request context. Missing or invalid tokens
// short-circuit the chain with 401 — the wrapped handler never runs.
//
// Note what does NOT happen here: no user lookup. The claims are trusted as-is
// because the signature checks out. Handlers that need the live user record
// (none currently do) would have to fetch it themselves.
//
// MIDDLEWARE PATTERN:
// A middleware takes an http.Handler and returns a new one that wraps it.
// Chi applies them in a chain: req → RequireAuth → handler → resp.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				http.Error(w,
					`{"error":"unauthorized","message":"Authorization header is missing or malformed. Use: Bearer <token>"}`,
					http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(tokenStr)
			if err != nil {
				http.Error(w,
					`{"error":"unauthorized","message":"Invalid or expired token"}`,
					http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the authenticated user's claims from the request
// context. Returns (nil, false) if the request never passed RequireAuth.
//
// Usage in handlers:
//
//	claims, ok := auth.ClaimsFromContext(r.Context())
//	if !ok {
//	    // unauthenticated — should not happen behind RequireAuth
//	}
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme comparison is case-insensitive, per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	return parts[1], true
}
