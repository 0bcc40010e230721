package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
	"foodpos/internal/service"
)

const defaultReportDays = 7

type ReportStore interface {
	Sales(ctx context.Context, from, to time.Time) (*service.Report, error)
	Close(ctx context.Context, day time.Time) (*model.DailyClosing, error)
	ListClosings(ctx context.Context, limit int) ([]model.DailyClosing, error)
}

// SalesReportHandler reports over from..to (dates, both inclusive). Without
// parameters it covers the last seven days including today.
func SalesReportHandler(reports ReportStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

		to, err := queryDate(r, "to", time.Local)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		if to == nil {
			to = &today
		}
		from, err := queryDate(r, "from", time.Local)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		if from == nil {
			start := to.AddDate(0, 0, 1-defaultReportDays)
			from = &start
		}

		report, err := reports.Sales(r.Context(), *from, to.AddDate(0, 0, 1))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// CloseDayHandler stores the closing of ?day=YYYY-MM-DD, today by default.
func CloseDayHandler(reports ReportStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := queryDate(r, "day", time.Local)
		if err != nil {
			http.Error(w, "invalid day", http.StatusBadRequest)
			return
		}
		if day == nil {
			now := time.Now()
			day = &now
		}

		closing, err := reports.Close(r.Context(), *day)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, closing)
	}
}

func ListClosingsHandler(reports ReportStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		closings, err := reports.ListClosings(r.Context(), queryInt(r, "limit"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, closings)
	}
}
