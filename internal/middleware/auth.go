package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Staff roles carried in the session token
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type contextKey string

const staffKey contextKey = "staff"

// StaffClaims are the session token claims issued by the booking system.
type StaffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RequireRole rejects requests without a valid HS256 bearer token whose role
// is one of roles. The token subject is stored as the staff id.
func RequireRole(secret []byte, logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseBearer(r.Header.Get("Authorization"), secret)
			if err != nil {
				logger.DebugContext(r.Context(), "rejected session token", "path", r.URL.Path, "error", err)
				writeMiddlewareError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing session token")
				return
			}

			if !slices.Contains(roles, claims.Role) {
				logger.InfoContext(r.Context(), "role not permitted",
					"path", r.URL.Path,
					"role", claims.Role,
					"staff_id", claims.Subject,
				)
				writeMiddlewareError(w, http.StatusForbidden, "forbidden", "role not permitted for this operation")
				return
			}

			ctx := context.WithValue(r.Context(), staffKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffID returns the authenticated staff member's id, or "" when the request
// did not pass RequireRole.
func StaffID(ctx context.Context) string {
	claims, ok := ctx.Value(staffKey).(*StaffClaims)
	if !ok {
		return ""
	}
	return claims.Subject
}

// WithStaff returns a context carrying claims, as RequireRole would.
func WithStaff(ctx context.Context, staffID, role string) context.Context {
	claims := &StaffClaims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: staffID}}
	return context.WithValue(ctx, staffKey, claims)
}

func parseBearer(header string, secret []byte) (*StaffClaims, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil, errors.New("missing bearer token")
	}

	claims := &StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func writeMiddlewareError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best effort response writing
	json.NewEncoder(w).Encode(errorResponse{Error: code, Message: message})
}
