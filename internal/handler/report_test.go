package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodpos/internal/model"
	"foodpos/internal/service"
)

type fakeReports struct {
	from, to time.Time
	day      time.Time
}

func (f *fakeReports) Sales(_ context.Context, from, to time.Time) (*service.Report, error) {
	f.from, f.to = from, to
	r := service.BuildReport(nil, nil, from, to)
	return &r, nil
}

func (f *fakeReports) Close(_ context.Context, day time.Time) (*model.DailyClosing, error) {
	f.day = day
	return &model.DailyClosing{Day: day}, nil
}

func (f *fakeReports) ListClosings(context.Context, int) ([]model.DailyClosing, error) {
	return []model.DailyClosing{}, nil
}

func TestSalesReportHandler_Range(t *testing.T) {
	reports := &fakeReports{}

	rec := serve(http.MethodGet, "/reports", SalesReportHandler(reports, quietLog),
		"/reports?from=2026-10-01&to=2026-10-07", "", "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reports.from.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.Local)))
	assert.True(t, reports.to.Equal(time.Date(2026, 10, 8, 0, 0, 0, 0, time.Local)))
}

func TestSalesReportHandler_DefaultsToLastWeek(t *testing.T) {
	reports := &fakeReports{}

	rec := serve(http.MethodGet, "/reports", SalesReportHandler(reports, quietLog), "/reports", "", "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reports.from.AddDate(0, 0, defaultReportDays).Equal(reports.to))
}

func TestCloseDayHandler(t *testing.T) {
	reports := &fakeReports{}

	rec := serve(http.MethodPost, "/closings", CloseDayHandler(reports, quietLog), "/closings?day=2026-10-05", "", "u1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 5, reports.day.Day())

	rec = serve(http.MethodPost, "/closings", CloseDayHandler(reports, quietLog), "/closings?day=05/10/2026", "", "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
