package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pawbook/visibility/internal/httputil"
	"github.com/pawbook/visibility/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// AccountIDKey is the context key for the authenticated account's ID
	AccountIDKey contextKey = "account_id"

	// RoleKey is the context key for the authenticated account's role claim
	RoleKey contextKey = "account_role"
)

// Auth validates JWT tokens and stores the account ID and role claim on the
// request context. Checks the Authorization header first (mobile clients),
// then falls back to the access_token cookie (web).
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Expected format: "Bearer <token>"
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				}
			}

			if tokenString == "" {
				cookie, err := r.Cookie("access_token")
				if err == nil && cookie.Value != "" {
					tokenString = cookie.Value
				}
			}

			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			accountIDFloat, ok := claims["account_id"].(float64)
			if !ok {
				httputil.WriteUnauthorized(w, "Invalid token claims")
				return
			}

			role := model.RoleUser
			if raw, ok := claims["role"].(string); ok && raw != "" {
				role = model.Role(raw)
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, int64(accountIDFloat))
			ctx = context.WithValue(ctx, RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireModerator gates the moderation route group on the role claim. The
// service layer re-checks the stored role; this is the outer fence.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := RoleFromContext(r.Context())
		if !ok || !role.CanModerate() {
			httputil.WriteForbidden(w, "Moderator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccountIDFromContext extracts the authenticated account ID from the
// request context.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(AccountIDKey).(int64)
	return id, ok
}

// RoleFromContext extracts the role claim from the request context.
func RoleFromContext(ctx context.Context) (model.Role, bool) {
	role, ok := ctx.Value(RoleKey).(model.Role)
	return role, ok
}
