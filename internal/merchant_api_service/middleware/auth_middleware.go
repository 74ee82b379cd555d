package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const AuthenticatedMerchantContextKey = ContextKey("authenticatedMerchant")

// AuthenticatedMerchant is the identity extracted from a session
// token, as placed in the request context.
type AuthenticatedMerchant struct {
	UserID     int64
	MerchantID int64
	Role       string
}

// MerchantFromContext retrieves the authenticated identity, if any.
func MerchantFromContext(ctx context.Context) (AuthenticatedMerchant, bool) {
	m, ok := ctx.Value(AuthenticatedMerchantContextKey).(AuthenticatedMerchant)
	return m, ok
}

// AuthMiddleware validates the bearer session token issued at login
// and injects the merchant identity into the request context.
func AuthMiddleware(jwtSecret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			identity, err := parseSessionToken(parts[1], jwtSecret)
			if err != nil {
				logger.WarnContext(r.Context(), "Session token validation failed", "error", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AuthenticatedMerchantContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseSessionToken(tokenString, secret string) (AuthenticatedMerchant, error) {
	var identity AuthenticatedMerchant

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return identity, errors.New("token is invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity, errors.New("unexpected claims type")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return identity, errors.New("missing subject claim")
	}
	identity.UserID = userID
	identity.Role, _ = claims["rol"].(string)
	// JSON numbers decode as float64.
	if mid, ok := claims["mid"].(float64); ok {
		identity.MerchantID = int64(mid)
	}
	return identity, nil
}
