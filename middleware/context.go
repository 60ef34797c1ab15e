package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for admin JWT claims
	ClaimsKey contextKey = "claims"

	// CallerIDKey is the context key for the resolved caller identity
	CallerIDKey contextKey = "caller_id"
)

// UnknownCaller is used when no forwarded address header is present
const UnknownCaller = "unknown"

// Claims represents the admin token claims
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetCallerIDFromContext retrieves the caller identity from context.
// Requests that did not pass through ResolveCaller report UnknownCaller.
func GetCallerIDFromContext(ctx context.Context) string {
	if val := ctx.Value(CallerIDKey); val != nil {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}
	return UnknownCaller
}

// WithCallerID adds the caller identity to the context
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, CallerIDKey, callerID)
}

// CallerIdentity derives the rate-limit and session key for a request:
// the first X-Forwarded-For hop, then X-Real-IP, then UnknownCaller.
func CallerIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownCaller
}

// ResolveCaller stores CallerIdentity in the request context
func ResolveCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithCallerID(r.Context(), CallerIdentity(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
