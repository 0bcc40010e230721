package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
	"foodpos/internal/mw"
	"foodpos/internal/service"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func LoginHandler(users Authenticator, secret string, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if req.Email == "" || req.Password == "" {
			http.Error(w, "email and password required", http.StatusBadRequest)
			return
		}

		user, err := users.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredential) {
				log.WithField("email", req.Email).Warn("login failed")
			}
			writeError(w, log, err)
			return
		}

		token, err := mw.IssueToken(secret, user.ID, user.Role, time.Now())
		if err != nil {
			log.WithError(err).Error("token generation failed")
			http.Error(w, "token generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Authorization", "Bearer "+token)
		writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
	}
}
