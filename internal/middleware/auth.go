package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware verifies the bearer token and puts the authenticated user ID
// into the request context under the "userID" key.
type AuthMiddleware struct {
	redis     *redis.Client
	jwtSecret string
}

func InitAuthMiddleware(redisClient *redis.Client, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{redis: redisClient, jwtSecret: jwtSecret}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := parts[1]

		// Tokens invalidated by logout live in the redis blacklist until they
		// would have expired anyway.
		if m.redis != nil {
			blacklisted, err := m.redis.Exists(r.Context(), "blacklist:"+token).Result()
			if err != nil {
				log.Printf("[AUTH] Blacklist check failed: %v", err)
			} else if blacklisted > 0 {
				http.Error(w, "Token has been invalidated", http.StatusUnauthorized)
				return
			}
		}

		userID, err := m.validateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("token carries no user identity")
	}

	return userID, nil
}
