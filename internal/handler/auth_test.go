package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodpos/internal/model"
	"foodpos/internal/mw"
	"foodpos/internal/service"
)

type fakeAuth struct {
	user *model.User
}

func (f fakeAuth) Authenticate(_ context.Context, email, password string) (*model.User, error) {
	if f.user == nil || email != f.user.Email || password != "secret1" {
		return nil, service.ErrInvalidCredential
	}
	return f.user, nil
}

func TestLoginHandler(t *testing.T) {
	users := fakeAuth{user: &model.User{ID: "u1", Email: "ana@shop.test", Role: "cashier", CreatedAt: time.Now()}}
	h := LoginHandler(users, "secret", quietLog)

	rec := serve(http.MethodPost, "/login", h, "/login", `{"email":"ana@shop.test","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Bearer "+resp.Token, rec.Header().Get("Authorization"))
	assert.Equal(t, "u1", resp.User.ID)

	// the issued token passes the auth middleware
	var seen string
	protected := mw.AuthMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = mw.Role(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", rec.Header().Get("Authorization"))
	check := httptest.NewRecorder()
	protected.ServeHTTP(check, req)
	assert.Equal(t, http.StatusOK, check.Code)
	assert.Equal(t, "cashier", seen)
}

func TestLoginHandler_Rejects(t *testing.T) {
	h := LoginHandler(fakeAuth{}, "secret", quietLog)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing password", `{"email":"ana@shop.test"}`, http.StatusBadRequest},
		{"unknown field", `{"login":"ana"}`, http.StatusBadRequest},
		{"wrong credentials", `{"email":"ana@shop.test","password":"nope"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(http.MethodPost, "/login", h, "/login", tt.body, "")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
