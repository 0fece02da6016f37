package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func authTestHandler(gotUserID *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := r.Context().Value("userID").(string); ok {
			*gotUserID = userID
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("valid token passes user id into context", func(t *testing.T) {
		m := InitAuthMiddleware(nil, testSecret)
		token := signToken(t, jwt.MapClaims{
			"user_id": "alice",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		var gotUserID string
		r := httptest.NewRequest("GET", "/api/v1/journal", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		m.Handler(authTestHandler(&gotUserID)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", gotUserID)
	})

	t.Run("missing header", func(t *testing.T) {
		m := InitAuthMiddleware(nil, testSecret)

		var gotUserID string
		r := httptest.NewRequest("GET", "/api/v1/journal", nil)
		w := httptest.NewRecorder()

		m.Handler(authTestHandler(&gotUserID)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, gotUserID)
	})

	t.Run("malformed header", func(t *testing.T) {
		m := InitAuthMiddleware(nil, testSecret)

		r := httptest.NewRequest("GET", "/api/v1/journal", nil)
		r.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		var gotUserID string
		m.Handler(authTestHandler(&gotUserID)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		m := InitAuthMiddleware(nil, testSecret)
		token := signToken(t, jwt.MapClaims{
			"user_id": "alice",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})

		r := httptest.NewRequest("GET", "/api/v1/journal", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		var gotUserID string
		m.Handler(authTestHandler(&gotUserID)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token without user id claim", func(t *testing.T) {
		m := InitAuthMiddleware(nil, testSecret)
		token := signToken(t, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		r := httptest.NewRequest("GET", "/api/v1/journal", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		var gotUserID string
		m.Handler(authTestHandler(&gotUserID)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("blacklisted token is rejected", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		m := InitAuthMiddleware(rdb, testSecret)
		token := signToken(t, jwt.MapClaims{
			"user_id": "alice",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		mock.ExpectExists("blacklist:" + token).SetVal(1)

		r := httptest.NewRequest("GET", "/api/v1/journal", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		var gotUserID string
		m.Handler(authTestHandler(&gotUserID)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unlisted token passes the blacklist", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		m := InitAuthMiddleware(rdb, testSecret)
		token := signToken(t, jwt.MapClaims{
			"user_id": "alice",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		mock.ExpectExists("blacklist:" + token).SetVal(0)

		r := httptest.NewRequest("GET", "/api/v1/journal", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		var gotUserID string
		m.Handler(authTestHandler(&gotUserID)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", gotUserID)
	})
}
