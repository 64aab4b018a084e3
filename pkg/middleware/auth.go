package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cotizapp/cotiz/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// MemberIDKey is the context key for the authenticated member ID
	MemberIDKey ContextKey = "member_id"
	// RoleKey is the context key for the authenticated role
	RoleKey ContextKey = "role"
)

// RoleManager marks users allowed to validate proofs and run administrative
// operations.
const RoleManager = "manager"

// Claims are the JWT claims this service issues and accepts
type Claims struct {
	MemberID int64  `json:"member_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth returns a middleware validating a bearer JWT signed with secret and
// placing the member ID and role in the request context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.MemberID == 0 {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), MemberIDKey, claims.MemberID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TestMemberMiddleware allows setting member ID via X-Test-Member-ID header (DEV ONLY)
// This makes it easy to test as different members without real auth
func TestMemberMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberIDStr := r.Header.Get("X-Test-Member-ID")
		if memberIDStr != "" {
			if memberID, err := strconv.ParseInt(memberIDStr, 10, 64); err == nil && memberID > 0 {
				ctx := context.WithValue(r.Context(), MemberIDKey, memberID)
				ctx = context.WithValue(ctx, RoleKey, r.Header.Get("X-Test-Role"))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// GetMemberID extracts the member ID from the request context
func GetMemberID(ctx context.Context) (int64, bool) {
	memberID, ok := ctx.Value(MemberIDKey).(int64)
	return memberID, ok
}

// IsManager reports whether the request carries the manager role
func IsManager(ctx context.Context) bool {
	role, _ := ctx.Value(RoleKey).(string)
	return role == RoleManager
}
