package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context()) + "/" + Role(r.Context())))
	})
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := IssueToken(testSecret, "u1", "cashier", time.Now())
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "u1", "cashier", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	foreign, err := IssueToken("other-secret", "u1", "cashier", time.Now())
	require.NoError(t, err)
	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{name: "valid", header: "Bearer " + valid, code: http.StatusOK, body: "u1/cashier"},
		{name: "missing", header: "", code: http.StatusUnauthorized},
		{name: "bad format", header: "Token " + valid, code: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, code: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, code: http.StatusUnauthorized},
		{name: "no role claim", header: "Bearer " + noRole, code: http.StatusUnauthorized},
	}

	h := AuthMiddleware(testSecret)(echoIdentity())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := AuthMiddleware(testSecret)(RequireRole("admin", "cashier")(echoIdentity()))

	for role, code := range map[string]int{
		"admin":   http.StatusOK,
		"cashier": http.StatusOK,
		"kitchen": http.StatusForbidden,
	} {
		token, err := IssueToken(testSecret, "u1", role, time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, code, rec.Code, role)
	}
}
