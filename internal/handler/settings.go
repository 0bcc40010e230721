package handler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
)

type SettingsStore interface {
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, values map[string]string) error
}

func GetSettingsHandler(settings SettingsStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := settings.All(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, all)
	}
}

func UpdateSettingsHandler(settings SettingsStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := settings.Update(r.Context(), req); err != nil {
			writeError(w, log, err)
			return
		}

		all, err := settings.All(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, all)
	}
}
