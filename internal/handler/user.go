package handler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
	"foodpos/internal/mw"
	"foodpos/internal/service"
)

type UserStore interface {
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, in service.NewUser) (*model.User, error)
	UpdateRole(ctx context.Context, id string, role service.Role) error
	Delete(ctx context.Context, actorID, id string) error
}

func MeHandler(users UserStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := users.Get(r.Context(), mw.UserID(r.Context()))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func ListUsersHandler(users UserStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.List(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func CreateUserHandler(users UserStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.NewUser
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := users.Create(r.Context(), req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func UpdateUserRoleHandler(users UserStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req struct {
			Role service.Role `json:"role"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := users.UpdateRole(r.Context(), id, req.Role); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteUserHandler(users UserStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := users.Delete(r.Context(), mw.UserID(r.Context()), id); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
