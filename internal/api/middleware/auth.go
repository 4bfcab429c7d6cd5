package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sentinelops/triage/internal/auth"
	"github.com/sentinelops/triage/internal/domain/analyst"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// AnalystIDKey is the context key for the authenticated analyst's ID
	AnalystIDKey ContextKey = "analystID"
	// AnalystEmailKey is the context key for the analyst's email
	AnalystEmailKey ContextKey = "analystEmail"
	// AnalystRoleKey is the context key for the analyst's role
	AnalystRoleKey ContextKey = "analystRole"
)

// AuthMiddleware returns a middleware that validates bearer tokens
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string
			if parts := strings.Split(r.Header.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
				tokenStr = parts[1]
			}

			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), AnalystIDKey, claims.AnalystID)
			ctx = context.WithValue(ctx, AnalystEmailKey, claims.Email)
			ctx = context.WithValue(ctx, AnalystRoleKey, claims.Role)

			AddLogField(w, "analyst_id", claims.AnalystID)
			AddLogField(w, "email", claims.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// Must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(AnalystRoleKey).(string)
		if role != analyst.RoleAdmin {
			utils.WriteError(w, errors.Forbidden("Admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetAnalystID extracts the analyst ID from the request context
func GetAnalystID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(AnalystIDKey).(int64)
	return id, ok
}

// GetAnalystEmail extracts the analyst email from the request context
func GetAnalystEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(AnalystEmailKey).(string)
	return email, ok
}
