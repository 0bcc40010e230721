package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	"foodpos/internal/logging"
	"foodpos/internal/mw"
)

var quietLog = logging.Discard()

// serve routes a single request through a chi router so URL params resolve.
func serve(method, pattern string, h http.HandlerFunc, target, body string, userID string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		ctx := context.WithValue(req.Context(), mw.UserCtxKey, userID)
		req = req.WithContext(context.WithValue(ctx, mw.RoleCtxKey, "admin"))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const (
	testOrderID = "6f1c1b6a-2d4e-4c71-9a53-0c9e6c6f7a10"
	testItemID  = "0b7e4f6e-93a4-4d0c-8d5e-2a1f3f1f9c21"
	testMenuID  = "a3c9d2f0-5b1e-4e8a-9f77-4c2d1e0b6a55"
)
