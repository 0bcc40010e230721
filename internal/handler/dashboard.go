package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"foodpos/internal/service"
)

type DashboardSource interface {
	Summary(ctx context.Context, now time.Time) (*service.Dashboard, error)
}

func DashboardHandler(dashboard DashboardSource, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := dashboard.Summary(r.Context(), time.Now())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
