package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castellan-sec/castellan/pkg/identity"
)

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func callMiddleware(t *testing.T, authorization string) (*httptest.ResponseRecorder, *identity.Identity) {
	t.Helper()

	var captured *identity.Identity
	handler := NewJWTAuthenticator(testSecret).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = identity.Get(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder, captured
}

func TestJWTAuthenticator(t *testing.T) {
	t.Run("attaches the identity for a valid token", func(t *testing.T) {
		token := signedToken(t, testSecret, Claims{
			Email: "reviewer@example.com",
			Name:  "Sam Reviewer",
			Roles: []string{"reviewer"},
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user-1",
			},
		})

		recorder, id := callMiddleware(t, "Bearer "+token)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, id)
		assert.Equal(t, "reviewer@example.com", id.Email)
		assert.Equal(t, "user-1", id.Sub)
		assert.True(t, id.HasRole("reviewer"))
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		recorder, id := callMiddleware(t, "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Nil(t, id)
	})

	t.Run("rejects a non-bearer header", func(t *testing.T) {
		recorder, _ := callMiddleware(t, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token := signedToken(t, []byte("other-secret"), Claims{Email: "reviewer@example.com"})
		recorder, _ := callMiddleware(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token := signedToken(t, testSecret, Claims{
			Email: "reviewer@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})
		recorder, _ := callMiddleware(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects a token without an email claim", func(t *testing.T) {
		token := signedToken(t, testSecret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		})
		recorder, _ := callMiddleware(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
